package control

import (
	"context"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/domain"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func NewGRPCClientGateway(grpcClientConnection grpc.ClientConnInterface, logger logging.Logger) domain.Contract {
	grpcClient := healthpb.NewHealthClient(grpcClientConnection)
	return &grpcClientGateway{
		grpcClient: grpcClient,
		logger:     logger,
	}
}

type grpcClientGateway struct {
	grpcClient healthpb.HealthClient
	logger     logging.Logger
}

func (gw *grpcClientGateway) Status(ctx context.Context) (domain.Status, error) {
	var header metadata.MD
	response, err := gw.grpcClient.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName}, grpc.Header(&header))
	if err != nil {
		gw.logger.Errorf("Status client gateway: %v", err)
		return domain.Status{}, err
	}
	gw.logger.Debugf("Status client gateway done")

	return domain.Status{
		Phase:   firstValue(header, HeaderPhase),
		Detail:  firstValue(header, HeaderDetail),
		Serving: response.GetStatus() == healthpb.HealthCheckResponse_SERVING,
	}, nil
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
