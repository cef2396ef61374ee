package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/driver"
	"github.com/SmartFleetPass/SmartFleetPass/internal/vehicle"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.Wrap(errs.KindValidation, "invalid json body", err))
		return
	}
	token, expiresAt, err := h.drivers.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// 登录失败统一 401，不泄露账号是否存在
		if errs.IsKind(err, errs.KindNotFound) || errs.IsKind(err, errs.KindValidation) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"kind": "unauthenticated", "message": "invalid credentials"},
			})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": expiresAt})
}

type registerDriverRequest struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	LicenseNo string   `json:"license_no"`
	Roles     []string `json:"roles"`
}

// RegisterDriver POST /api/v1/drivers
func (h *Handler) RegisterDriver(c *gin.Context) {
	var req registerDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.Wrap(errs.KindValidation, "invalid json body", err))
		return
	}
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Name:      req.Name,
		Phone:     req.Phone,
		LicenseNo: req.LicenseNo,
		Roles:     req.Roles,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       d.ID,
		"username": d.Username,
		"name":     d.Name,
		"roles":    d.RolesSlice(),
	})
}

// ListDrivers GET /api/v1/drivers
func (h *Handler) ListDrivers(c *gin.Context) {
	page, size := pagination(c)
	drivers, total, err := h.dRepo.List(c.Request.Context(), (page-1)*size, size)
	if err != nil {
		writeError(c, errs.Wrap(errs.KindInternal, "failed to list drivers", err))
		return
	}
	out := make([]gin.H, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, gin.H{
			"id":         d.ID,
			"username":   d.Username,
			"name":       d.Name,
			"phone":      d.Phone,
			"license_no": d.LicenseNo,
			"roles":      d.RolesSlice(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"drivers": out, "total": total})
}

type upsertVehicleRequest struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number"`
	VIN         string `json:"vin"`
	Model       string `json:"model"`
	OwnerID     string `json:"owner_id"`
	Status      string `json:"status"`
}

// UpsertVehicle POST /api/v1/vehicles
func (h *Handler) UpsertVehicle(c *gin.Context) {
	var req upsertVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.Wrap(errs.KindValidation, "invalid json body", err))
		return
	}

	plate := strings.TrimSpace(req.PlateNumber)
	if plate == "" {
		writeError(c, errs.Field(errs.KindValidation, "plate_number", "plate_number required"))
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	st := strings.TrimSpace(req.Status)
	if st == "" {
		st = "available"
	}

	v := &vehicle.Vehicle{
		ID:          id,
		PlateNumber: plate,
		VIN:         strings.TrimSpace(req.VIN),
		Model:       strings.TrimSpace(req.Model),
		OwnerID:     strings.TrimSpace(req.OwnerID),
		Status:      st,
	}
	if err := h.vehicles.Upsert(c.Request.Context(), v); err != nil {
		writeError(c, errs.Wrap(errs.KindInternal, "failed to upsert vehicle", err))
		return
	}

	// read back to get timestamps if DB sets them
	latest, err := h.vehicles.FindByID(c.Request.Context(), v.ID)
	if err != nil {
		// 如果查询失败，仍返回写入的内容（时间戳可能为空）
		latest = v
	}
	c.JSON(http.StatusOK, toVehicleResponse(latest))
}

// ListVehicles GET /api/v1/vehicles?owner_id=&page=&page_size=
func (h *Handler) ListVehicles(c *gin.Context) {
	page, size := pagination(c)
	vs, total, err := h.vehicles.List(c.Request.Context(), strings.TrimSpace(c.Query("owner_id")), (page-1)*size, size)
	if err != nil {
		writeError(c, errs.Wrap(errs.KindInternal, "failed to list vehicles", err))
		return
	}
	out := make([]gin.H, 0, len(vs))
	for i := range vs {
		out = append(out, toVehicleResponse(&vs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": out, "total": total})
}

// GetVehicle GET /api/v1/vehicles/:id
func (h *Handler) GetVehicle(c *gin.Context) {
	v, err := h.vehicles.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, errs.New(errs.KindNotFound, "vehicle not found"))
		return
	}
	if err != nil {
		writeError(c, errs.Wrap(errs.KindInternal, "failed to find vehicle", err))
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

func toVehicleResponse(v *vehicle.Vehicle) gin.H {
	return gin.H{
		"id":           v.ID,
		"plate_number": v.PlateNumber,
		"vin":          v.VIN,
		"model":        v.Model,
		"owner_id":     v.OwnerID,
		"odometer":     v.Odometer,
		"status":       v.Status,
	}
}
