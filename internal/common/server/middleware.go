package server

import (
	"runtime/debug"
	"strings"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/auth"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/config"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/logger"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const authInfoKey = "auth_info"

// AuthInfo 从 JWT 中解析出的最小用户信息（放入 gin context，供业务侧使用）。
type AuthInfo struct {
	Subject string   // 用户 ID
	Roles   []string // 角色列表（RBAC）
}

// AuthFromContext 从 gin context 中取出鉴权信息。
func AuthFromContext(c *gin.Context) (AuthInfo, bool) {
	v, ok := c.Get(authInfoKey)
	if !ok {
		return AuthInfo{}, false
	}
	ai, ok := v.(AuthInfo)
	return ai, ok
}

// Recovery 防止 panic 直接把进程打崩，并记录栈信息。
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Errorf("panic in http path=%s err=%v stack=%s", c.FullPath(), r, string(debug.Stack()))
				}
				c.AbortWithStatusJSON(500, gin.H{
					"error": gin.H{"kind": "internal", "message": "internal error"},
				})
			}
		}()
		c.Next()
	}
}

// AccessLog 记录每个 HTTP 请求的耗时/状态码。
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		cost := time.Since(start)

		if log == nil {
			return
		}
		fields := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"cost":   cost.String(),
		}
		if c.Writer.Status() >= 500 {
			log.WithFields(fields).Warn("http request failed")
		} else {
			log.WithFields(fields).Info("http request ok")
		}
	}
}

// Tracing 基于 OpenTracing 的最小 server 中间件：
// - 从请求头里提取 span context（uber-trace-id / traceparent 等，取决于上游注入格式）
// - 创建 server span，并注入到 request ctx，方便业务侧 opentracing.StartSpanFromContext 使用
func Tracing(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()

		var parent opentracing.SpanContext
		if sc, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(c.Request.Header)); err == nil {
			parent = sc
		}

		operation := c.Request.Method + " " + c.FullPath()
		var span opentracing.Span
		if parent != nil {
			span = tracer.StartSpan(operation, ext.RPCServerOption(parent))
		} else {
			span = tracer.StartSpan(operation)
		}
		defer span.Finish()

		ext.SpanKindRPCServer.Set(span)
		ext.HTTPMethod.Set(span, c.Request.Method)
		ext.HTTPUrl.Set(span, c.Request.URL.Path)
		if serviceName != "" {
			span.SetTag("service", serviceName)
		}

		c.Request = c.Request.WithContext(opentracing.ContextWithSpan(c.Request.Context(), span))
		c.Next()

		ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
	}
}

// JWTAuth 用于 JWT 鉴权：
// - 从 `Authorization: Bearer <token>` 读取 token
// - 校验签名与标准字段（auth.ParseAccessToken）
// - 将解析结果写入 gin context
func JWTAuth(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || isPublicPath(cfg.PublicPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			if log != nil {
				log.Warn("auth enabled but jwt_secret is empty")
			}
			abortUnauthenticated(c, "auth not configured")
			return
		}

		tokenStr := auth.BearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			abortUnauthenticated(c, "missing authorization")
			return
		}

		claims, err := auth.ParseAccessToken(cfg, tokenStr)
		if err != nil {
			abortUnauthenticated(c, "invalid token")
			return
		}

		c.Set(authInfoKey, AuthInfo{Subject: claims.Subject, Roles: claims.Roles})
		c.Next()
	}
}

// RBAC 基于 path->roles 的简单 RBAC：
// - 若 cfg.RBAC[path] 存在且非空，则要求 token roles 与之有交集
// - 若该路径未配置要求角色，则默认放行（即“只鉴权，不限权”）
func RBAC(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || isPublicPath(cfg.PublicPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		required := cfg.RBAC[c.FullPath()]
		if len(required) == 0 {
			c.Next()
			return
		}

		ai, ok := AuthFromContext(c)
		if !ok {
			abortUnauthenticated(c, "missing auth context")
			return
		}
		if hasAnyRole(ai.Roles, required) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(403, gin.H{
			"error": gin.H{"kind": "forbidden", "message": "permission denied"},
		})
	}
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(401, gin.H{
		"error": gin.H{"kind": "unauthenticated", "message": msg},
	})
}

func hasAnyRole(got, required []string) bool {
	if len(got) == 0 || len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(got))
	for _, r := range got {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	for _, r := range required {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func isPublicPath(public []string, path string) bool {
	if path == "" || len(public) == 0 {
		return false
	}
	for _, p := range public {
		if strings.TrimSpace(p) == path {
			return true
		}
	}
	return false
}
