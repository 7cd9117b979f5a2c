package grpc

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ekisa-team/synadapt/internal/discovery"
)

// Server serves the discovery service and the standard health service.
// The discovery service reports SERVING once a listing has succeeded.
type Server struct {
	lister  discovery.Lister
	grpc    *gogrpc.Server
	health  *health.Server
	serving atomic.Bool
}

var _ DiscoveryServer = (*Server)(nil)

// NewServer creates a server listing platforms through lister.
func NewServer(lister discovery.Lister, opts ...gogrpc.ServerOption) *Server {
	s := &Server{
		lister: lister,
		grpc:   gogrpc.NewServer(opts...),
		health: health.NewServer(),
	}

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	RegisterDiscoveryServer(s.grpc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)

	return s
}

// ListPlatforms implements DiscoveryServer.
func (s *Server) ListPlatforms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	infos, err := s.lister.ListPlatforms(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		slog.Error("Failed to list platforms", "error", err)
		return nil, status.Error(codes.Unavailable, "failed to list platforms")
	}

	out, err := encodePlatforms(infos)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	if s.serving.CompareAndSwap(false, true) {
		s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	return out, nil
}

// Serve accepts connections on lis until Stop or GracefulStop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// GracefulStop marks the server NOT_SERVING and waits for pending calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Stop closes every connection immediately.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.Stop()
}
