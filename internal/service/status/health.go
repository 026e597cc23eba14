package status

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/room-monitor/internal/logger"
)

// ServiceName is the gRPC health service name reporting the poll loop.
const ServiceName = "room-monitor"

// Health reports whether the poll loop runs over the gRPC health protocol.
type Health struct {
	// server holds the serving statuses.
	server *health.Server
}

// NewHealth creates a health reporter in NOT_SERVING state.
func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.SetRunning(false)

	return h
}

// SetRunning switches both the overall and the named service status.
func (h *Health) SetRunning(running bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if running {
		status = healthpb.HealthCheckResponse_SERVING
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Register adds the health service to a gRPC server.
func (h *Health) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, h.server)
}

// Serve listens on address until ctx is cancelled.
func (h *Health) Serve(ctx context.Context, address string) error {
	ctx = logger.WithName(ctx, "status-grpc")

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	grpcServer := grpc.NewServer()
	h.Register(grpcServer)

	logger.InfoKV(ctx, "Health server listening", "listen_address", lis.Addr().String())

	// Done is closed after GracefulStop so Serve returns only once the server fully stopped.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		h.server.Shutdown()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Health server stopped")

	return nil
}
