// Package grpc serves the standard gRPC health service so orchestrators can
// probe the connector without going through the HTTP stack.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/fundconnector/internal/logging"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "fundconnector"

const (
	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 2 * time.Second
)

// Check is one dependency whose failure flips the service to NOT_SERVING.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	checks   []Check
	interval time.Duration
	health   *health.Server

	mu      sync.Mutex
	serving bool
}

func NewGRPCServer(address string, l logging.Logger, checks ...Check) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		checks:   checks,
		interval: defaultProbeInterval,
		health:   health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-t.C:
				s.probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

// probe runs every check and publishes the combined status.
func (s *GRPCServer) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	serving := true
	for _, c := range s.checks {
		if err := c.Probe(ctx); err != nil {
			s.logger.Warn(ctx, "health probe failed", "check", c.Name, "error", err)
			serving = false
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)

	s.mu.Lock()
	changed := s.serving != serving
	s.serving = serving
	s.mu.Unlock()
	if changed {
		s.logger.Info(ctx, "health status changed", "status", st.String())
	}
}
