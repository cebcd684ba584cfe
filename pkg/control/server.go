package control

import (
	"context"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/domain"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"

	corecontrol "github.com/core-tools/hsu-core/pkg/control"
	coredomain "github.com/core-tools/hsu-core/pkg/domain"
	corelogging "github.com/core-tools/hsu-core/pkg/logging"
)

// Server exposes a domain.Contract over the gRPC health protocol, next to
// the core Ping service clients use to wait for the endpoint
type Server struct {
	server corecontrol.Server
	port   int
	logger logging.Logger
}

func NewServer(port int, handler domain.Contract, logger logging.Logger) (*Server, error) {
	coreLogger := NewCoreLogger(logger)

	server, err := corecontrol.NewServer(corecontrol.ServerOptions{Port: port}, coreLogger)
	if err != nil {
		return nil, errors.NewIOError("failed to create server", err).WithContext("port", port)
	}

	corecontrol.RegisterGRPCServerHandler(server.GRPC(), coredomain.NewDefaultHandler(coreLogger), coreLogger)
	RegisterGRPCServerHandler(server.GRPC(), handler, logger)

	return &Server{
		server: server,
		port:   port,
		logger: logger,
	}, nil
}

// NewCoreLogger routes core library logging through logger
func NewCoreLogger(logger logging.Logger) corelogging.Logger {
	return corelogging.NewLogger("hsu-core: ", corelogging.LogFuncs{
		Debugf: logger.Debugf,
		Infof:  logger.Infof,
		Warnf:  logger.Warnf,
		Errorf: logger.Errorf,
	})
}

func (s *Server) Port() int {
	return s.port
}

// Start serves in the background until Stop
func (s *Server) Start(ctx context.Context) {
	s.logger.Infof("Health endpoint starting on port %d", s.port)
	s.server.Start(ctx)
}

func (s *Server) Stop(ctx context.Context) {
	s.server.Shutdown(ctx)
	s.logger.Infof("Health endpoint stopped")
}
