// Package grpc serves the standard grpc.health.v1 service for load
// balancers and orchestrators.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/services"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "compliancebinder"

const defaultInterval = 15 * time.Second

// HealthSource produces the current health snapshot.
type HealthSource interface {
	Health(ctx context.Context) services.Health
}

type HealthServer struct {
	address  string
	source   HealthSource
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewHealthServer(a string, l logging.Logger, src HealthSource, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &HealthServer{
		address:  a,
		source:   src,
		interval: interval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve answers health checks on listen until ctx is cancelled. The status
// is refreshed from the source every interval.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *HealthServer) refresh(ctx context.Context) {
	h := s.source.Health(ctx)

	status := healthpb.HealthCheckResponse_SERVING
	if !h.Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn(ctx, "service degraded", "database", h.Database, "storage", h.Storage)
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
