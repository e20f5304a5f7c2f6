package grpc

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

// HealthServer 只提供标准gRPC健康检查, 供注册中心与负载均衡探活
type HealthServer struct {
	server  *grpc.Server
	health  *health.Server
	service string
	addr    string
}

func NewHealthServer(cfg config.GRPCServerConfig, serviceName string) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)
	return &HealthServer{
		server:  s,
		health:  h,
		service: serviceName,
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

func (s *HealthServer) Addr() string { return s.addr }

// Start 监听失败立即返回错误, Serve在后台运行
func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", s.addr, err)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.service, healthpb.HealthCheckResponse_SERVING)
	go func() {
		logger.Infof("gRPC server started address=%s service=%s", s.addr, s.service)
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("gRPC server encountered an error error=%v", err)
		}
	}()
	return nil
}

// Stop 先标记NOT_SERVING再优雅停止
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
	logger.Infof("gRPC server stopped address=%s", s.addr)
}
