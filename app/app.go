package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	grpcadapter "media-pipeline-service/ddd/adapter/grpc"
	pipelineapp "media-pipeline-service/ddd/application/app"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/middleware"
	"media-pipeline-service/pkg/observability"
	"media-pipeline-service/pkg/registry"

	_ "media-pipeline-service/ddd/adapter/component"
	_ "media-pipeline-service/ddd/adapter/http"

	// 导入资源包以触发init函数
	"media-pipeline-service/internal/resource"
)

const (
	ServiceName = "media-pipeline-service"
	Version     = "1.0.0"
)

// Bootstrap 加载配置, 初始化日志与资源, 返回的cleanup按逆序释放
func Bootstrap(cfgPath string) (*config.Config, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})

	manager.MustInitResources()
	logger.Infof("Resources initialized driver=%s redis=%t kafka=%t minio=%t",
		cfg.Database.Driver, cfg.Redis.Enabled, cfg.Kafka.Enabled, cfg.Minio.Enabled)

	cleanup := func() {
		manager.CloseResources()
		logService.Close()
	}
	return cfg, cleanup, nil
}

// Run 启动HTTP, gRPC健康检查与后台组件, 收到信号后优雅退出
func Run(cfgPath string) {
	fmt.Println("[STARTUP] Starting media pipeline service...")
	cfg, cleanup, err := Bootstrap(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	stopProfiling := observability.StartProfiling(ServiceName, cfg.Profiling)
	defer stopProfiling()

	logger.Infof("Media pipeline service starting version=%s config=%s", Version, cfgPath)

	pipeline := pipelineapp.DefaultPipeline()
	deps := &manager.Dependencies{
		DB:         resource.DefaultDatabaseResource().MainDB(),
		Config:     cfg,
		PublishApp: pipelineapp.DefaultPublishApp(),
		WebhookApp: pipelineapp.DefaultWebhookApp(),
	}
	logger.Infof("Pipeline assembled batch_size=%d failure_policy=%s callback_base=%s",
		pipeline.Settings.BatchSize, pipeline.Settings.FailurePolicy, pipeline.Settings.CallbackBaseURL)

	manager.MustInitComponents(deps)
	defer manager.Shutdown()

	var grpcServer *grpcadapter.HealthServer
	if cfg.GRPCServer.Enabled {
		grpcServer = grpcadapter.NewHealthServer(cfg.GRPCServer, ServiceName)
		if err := grpcServer.Start(); err != nil {
			logger.Fatal(err.Error())
		}
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger(), middleware.RequestContextMiddleware())
	manager.RegisterAllRoutes(router)

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         httpAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started address=%s health_url=%s", httpAddr,
		fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port))

	reg := registerInstance(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Received shutdown signal, shutting down server...")

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			logger.Warnf("Deregister service failed error=%v", err)
		}
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}
	logger.Infof("Server exited safely")
}

func registerInstance(cfg *config.Config) *registry.ServiceRegistry {
	if !cfg.ServiceRegistry.Enabled {
		return nil
	}
	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host, _ = os.Hostname()
	}
	id := cfg.ServiceRegistry.ServiceID
	if id == "" {
		id = host + "-" + strconv.Itoa(cfg.Server.Port)
	}
	instance := registry.Instance{
		ID:       id,
		HTTPAddr: net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)),
		Version:  Version,
	}
	if cfg.GRPCServer.Enabled {
		instance.GRPCAddr = net.JoinHostPort(host, strconv.Itoa(cfg.GRPCServer.Port))
	}
	reg, err := registry.NewServiceRegistry(cfg.Etcd, cfg.ServiceRegistry, instance)
	if err != nil {
		logger.Warnf("Create service registry failed error=%v", err)
		return nil
	}
	if err := reg.Register(); err != nil {
		logger.Warnf("Register service failed error=%v", err)
		_ = reg.Deregister()
		return nil
	}
	return reg
}

// ResolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func ResolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config.prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
