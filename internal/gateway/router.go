package gateway

import (
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/config"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/logger"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/middleware"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/server"
	"github.com/SmartFleetPass/SmartFleetPass/internal/driver"
	"github.com/SmartFleetPass/SmartFleetPass/internal/evidence"
	"github.com/SmartFleetPass/SmartFleetPass/internal/inspection"
	"github.com/SmartFleetPass/SmartFleetPass/internal/lifecycle"
	"github.com/SmartFleetPass/SmartFleetPass/internal/vehicle"
	"github.com/gin-gonic/gin"
)

// Handler 聚合各路由依赖。
type Handler struct {
	co       *lifecycle.Coordinator
	ledger   *inspection.Ledger
	store    evidence.Store
	vehicles *vehicle.Repo
	drivers  *driver.Service
	dRepo    *driver.Repo
	log      logger.Logger
}

func NewHandler(
	co *lifecycle.Coordinator,
	ledger *inspection.Ledger,
	store evidence.Store,
	vehicles *vehicle.Repo,
	drivers *driver.Service,
	dRepo *driver.Repo,
	log logger.Logger,
) *Handler {
	return &Handler{
		co:       co,
		ledger:   ledger,
		store:    store,
		vehicles: vehicles,
		drivers:  drivers,
		dRepo:    dRepo,
		log:      log,
	}
}

// NewRouter 组装 gin engine：恢复/日志/追踪/鉴权中间件 + 业务路由。
// 出车/回场提交单独挂限流，防重试风暴。
func NewRouter(cfg *config.Config, log logger.Logger, h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		server.Recovery(log),
		server.Tracing(cfg.Server.Name),
		server.AccessLog(log),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})

	api := r.Group("/api/v1", server.JWTAuth(cfg.Auth, log), server.RBAC(cfg.Auth))

	api.POST("/auth/login", h.Login)

	api.POST("/commissions", h.CreateCommission)
	api.GET("/commissions", h.ListCommissions)
	api.GET("/commissions/:folio", h.GetCommission)
	api.DELETE("/commissions/:folio", h.DeleteCommission)
	api.POST("/commissions/:folio/restore", h.RestoreCommission)

	submit := api.Group("/passes")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		submit.Use(middleware.GinRateLimit(limiter))
	}
	submit.POST("/departure", h.SubmitDeparture)
	submit.POST("/arrival", h.SubmitArrival)

	api.GET("/passes/:id", h.GetPass)
	api.DELETE("/inspections/:id", h.RemoveInspection)
	api.GET("/evidence/:locator", h.GetEvidence)

	api.POST("/vehicles", h.UpsertVehicle)
	api.GET("/vehicles", h.ListVehicles)
	api.GET("/vehicles/:id", h.GetVehicle)

	api.POST("/drivers", h.RegisterDriver)
	api.GET("/drivers", h.ListDrivers)

	return r
}
