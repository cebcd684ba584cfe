package control

import (
	"context"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/domain"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

// ServiceName is the health service name the monitor answers for, besides ""
const ServiceName = "tenmon.monitor"

// Response header keys carrying the status detail next to the health status
const (
	HeaderPhase  = "monitor-phase"
	HeaderDetail = "monitor-detail"
)

func RegisterGRPCServerHandler(grpcServerRegistrar grpc.ServiceRegistrar, handler domain.Contract, logger logging.Logger) {
	healthpb.RegisterHealthServer(grpcServerRegistrar, &grpcServerHandler{
		handler: handler,
		logger:  logger,
	})
}

type grpcServerHandler struct {
	healthpb.UnimplementedHealthServer
	handler domain.Contract
	logger  logging.Logger
}

func (h *grpcServerHandler) Check(ctx context.Context, request *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if service := request.GetService(); service != "" && service != ServiceName {
		h.logger.Debugf("Health check for unknown service: %s", service)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVICE_UNKNOWN}, nil
	}

	status, err := h.handler.Status(ctx)
	if err != nil {
		h.logger.Errorf("Status server handler: %v", err)
		return nil, err
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(HeaderPhase, status.Phase, HeaderDetail, status.Detail)); err != nil {
		h.logger.Warnf("Status server handler, failed to set header: %v", err)
	}

	h.logger.Debugf("Status server handler done, status: %s", status)
	if status.Serving {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
}
