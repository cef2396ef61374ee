package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/SmartFleetPass/SmartFleetPass/internal/commission"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/gin-gonic/gin"
)

type createCommissionRequest struct {
	DriverID    string `json:"driver_id"`
	VehicleID   string `json:"vehicle_id"`
	RequesterID string `json:"requester_id"`
	Route       string `json:"route"`
}

type commissionResponse struct {
	ID          string `json:"id"`
	Folio       string `json:"folio"`
	DriverID    string `json:"driver_id"`
	VehicleID   string `json:"vehicle_id"`
	RequesterID string `json:"requester_id,omitempty"`
	Route       string `json:"route,omitempty"`
	Active      bool   `json:"active"`
	Status      string `json:"status,omitempty"`
}

// CreateCommission POST /api/v1/commissions
func (h *Handler) CreateCommission(c *gin.Context) {
	var req createCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.Wrap(errs.KindValidation, "invalid json body", err))
		return
	}

	created, err := h.co.CreateCommission(c.Request.Context(), commission.CreateInput{
		DriverID:    req.DriverID,
		VehicleID:   req.VehicleID,
		RequesterID: req.RequesterID,
		Route:       req.Route,
	}, actorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommissionResponse(created, "created"))
}

// GetCommission GET /api/v1/commissions/:folio
func (h *Handler) GetCommission(c *gin.Context) {
	cm, err := h.co.Commission(c.Request.Context(), c.Param("folio"))
	if err != nil {
		writeError(c, err)
		return
	}
	status, err := h.co.CommissionStatus(c.Request.Context(), cm.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCommissionResponse(cm, status))
}

// ListCommissions GET /api/v1/commissions?active=true&page=1&page_size=20
func (h *Handler) ListCommissions(c *gin.Context) {
	var activeOnly *bool
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, errs.Field(errs.KindValidation, "active", "active must be a boolean"))
			return
		}
		activeOnly = &b
	}
	page, size := pagination(c)

	items, total, err := h.co.ListCommissions(c.Request.Context(), activeOnly, (page-1)*size, size)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]commissionResponse, 0, len(items))
	for i := range items {
		out = append(out, toCommissionResponse(&items[i], ""))
	}
	c.JSON(http.StatusOK, gin.H{"commissions": out, "total": total})
}

// DeleteCommission DELETE /api/v1/commissions/:folio （软删，幂等）
func (h *Handler) DeleteCommission(c *gin.Context) {
	changed, err := h.co.DeleteCommission(c.Request.Context(), c.Param("folio"), actorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "changed": changed})
}

// RestoreCommission POST /api/v1/commissions/:folio/restore （幂等）
func (h *Handler) RestoreCommission(c *gin.Context) {
	changed, err := h.co.RestoreCommission(c.Request.Context(), c.Param("folio"), actorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true, "changed": changed})
}

func toCommissionResponse(cm *commission.Commission, status string) commissionResponse {
	return commissionResponse{
		ID:          cm.ID,
		Folio:       cm.Folio,
		DriverID:    cm.DriverID,
		VehicleID:   cm.VehicleID,
		RequesterID: cm.RequesterID,
		Route:       cm.Route,
		Active:      cm.Active,
		Status:      status,
	}
}

func pagination(c *gin.Context) (page, size int) {
	page = 1
	size = 20
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 200 {
		size = v
	}
	return page, size
}
