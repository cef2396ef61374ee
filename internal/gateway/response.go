package gateway

import (
	"net/http"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/gin-gonic/gin"
)

// writeError 业务错误统一出口：kind -> HTTP 状态码，附带出错字段。
// 任何操作要么返回完整视图，要么返回结构化失败，不存在“部分成功还装成功”。
func writeError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	body := gin.H{"kind": string(kind), "message": err.Error()}
	if field := errs.FieldOf(err); field != "" {
		body["field"] = field
	}
	c.JSON(statusOf(kind), gin.H{"error": body})
}

func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindState, errs.KindConflict:
		return http.StatusConflict
	case errs.KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
