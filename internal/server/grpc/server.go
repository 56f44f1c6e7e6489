// Package grpc hosts the gRPC listener of the back office. Every unary and
// streaming call except the health service must carry a valid access token.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator resolves a bearer access token into the calling principal.
type Authenticator interface {
	Authenticate(token string) (auth.Principal, error)
}

// Registrar attaches a service implementation to the server.
type Registrar func(s *grpc.Server)

type GRPCServer struct {
	address    string
	auth       Authenticator
	logger     logging.Logger
	health     *health.Server
	registrars []Registrar
}

func NewGRPCServer(a string, l logging.Logger, authn Authenticator, registrars ...Registrar) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		auth:       authn,
		health:     health.NewServer(),
		registrars: registrars,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	for _, r := range s.registrars {
		r(srv)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
