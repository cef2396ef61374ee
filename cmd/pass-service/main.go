package main

import (
	"flag"
	"fmt"

	"github.com/SmartFleetPass/SmartFleetPass/internal/commission"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/config"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/db"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/logger"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/server"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/tracing"
	"github.com/SmartFleetPass/SmartFleetPass/internal/driver"
	"github.com/SmartFleetPass/SmartFleetPass/internal/evidence"
	"github.com/SmartFleetPass/SmartFleetPass/internal/gateway"
	"github.com/SmartFleetPass/SmartFleetPass/internal/inspection"
	"github.com/SmartFleetPass/SmartFleetPass/internal/lifecycle"
	"github.com/SmartFleetPass/SmartFleetPass/internal/pass"
	"github.com/SmartFleetPass/SmartFleetPass/internal/vehicle"
)

var (
	configPath = flag.String("config", "configs/pass-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置（优先本地文件；配置了 consul.config_key 时改从 Consul KV 拉取）
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	if cfg.Consul.ConfigKey != "" {
		kvCfg, err := config.LoadConfigFromConsulKV(cfg.Consul.Host, cfg.Consul.Port, cfg.Consul.ConfigKey)
		if err != nil {
			panic(fmt.Sprintf("failed to load config from consul kv: %v", err))
		}
		cfg = kvCfg
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&commission.Commission{},
		&pass.Pass{},
		&inspection.Record{},
		&vehicle.Vehicle{},
		&driver.Driver{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 证据落盘目录
	store, err := evidence.NewDiskStore(cfg.Evidence.Dir)
	if err != nil {
		log.Fatalf("failed to init evidence store: %v", err)
	}

	// 审计日志走独立的 zap logger（结构化 JSON，便于后续采集）
	auditLog, err := logger.NewZapLogger(cfg.Log.Level, "json", cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		log.Fatalf("failed to init audit logger: %v", err)
	}

	cRepo := commission.NewRepo(gormDB)
	pRepo := pass.NewRepo(gormDB)
	iRepo := inspection.NewRepo(gormDB)
	vRepo := vehicle.NewRepo(gormDB)
	dRepo := driver.NewRepo(gormDB)

	commissions := commission.NewService(cRepo)
	passes := pass.NewService(pRepo, cRepo)
	ledger := inspection.NewLedger(iRepo, store, pRepo)
	drivers := driver.NewService(dRepo, cfg.Auth)

	co := lifecycle.NewCoordinator(
		passes, commissions, cRepo, ledger,
		lifecycle.NewZapAuditSubscriber(auditLog.Zap()),
	)

	h := gateway.NewHandler(co, ledger, store, vRepo, drivers, dRepo, log)
	engine := gateway.NewRouter(cfg, log, h)

	if err := server.RunHTTPServer(cfg, log, engine); err != nil {
		log.Fatalf("pass-service exited with error: %v", err)
	}
}
