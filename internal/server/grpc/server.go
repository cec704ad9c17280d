// Package grpc runs the loopback-only admin channel: gRPC health checking
// for the homeserver's components plus server reflection, behind an admin
// credential check.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ErrNonLoopbackAdmin is returned when the admin channel would listen on a
// non-loopback address.
var ErrNonLoopbackAdmin = errors.New("admin channel must bind to a loopback address")

// ErrNoAdminCredentials is returned when the admin user or hash is empty.
var ErrNoAdminCredentials = errors.New("admin channel requires a user and password hash")

const stopTimeout = 5 * time.Second

// AdminConfig configures the admin channel.
type AdminConfig struct {
	Host         string
	Port         int
	User         string
	PasswordHash string
}

type AdminServer struct {
	address      string
	user         string
	passwordHash []byte
	health       *health.Server
	logger       logging.Logger
}

// NewAdminServer validates cfg and returns a server with every component
// reported as not serving.
func NewAdminServer(cfg AdminConfig, l logging.Logger) (*AdminServer, error) {
	if !isLoopback(cfg.Host) {
		return nil, fmt.Errorf("%w: %q", ErrNonLoopbackAdmin, cfg.Host)
	}
	if cfg.User == "" || cfg.PasswordHash == "" {
		return nil, ErrNoAdminCredentials
	}

	s := &AdminServer{
		address:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		user:         cfg.User,
		passwordHash: []byte(cfg.PasswordHash),
		health:       health.NewServer(),
		logger:       l.With("module", "admin_channel"),
	}
	for _, c := range Components {
		s.health.SetServingStatus(c, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Address is the configured listen address.
func (s *AdminServer) Address() string {
	return s.address
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *AdminServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves the admin channel on lis until ctx is cancelled.
func (s *AdminServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.credentialsInterceptor),
		grpc.ChainStreamInterceptor(s.credentialsStreamInterceptor),
	)
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping admin channel...")
		s.health.Shutdown()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(stopTimeout):
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting admin channel", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
