// Package listener runs the HTTP(S) listener that serves the dispatch tree.
package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/logging"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// ErrTLSPair is returned when only one of the certificate and key is set.
var ErrTLSPair = errors.New("both TLS cert file and key file must be provided")

// Config controls the listener.
type Config struct {
	Addr            string
	TLSCertFile     string
	TLSKeyFile      string
	ShutdownTimeout time.Duration
}

// Run listens on cfg.Addr and serves handler until ctx is cancelled.
func Run(ctx context.Context, cfg Config, handler http.Handler, l logging.Logger) error {
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return ErrTLSPair
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, ln, cfg, handler, l)
}

// Serve is Run on an existing listener, which it takes ownership of. When
// ctx is cancelled it shuts the server down gracefully, bounded by
// cfg.ShutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, cfg Config, handler http.Handler, l logging.Logger) error {
	logger := l.With("module", "listener")

	srv := &http.Server{
		Handler:           Chain(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.TLSCertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			ln.Close()
			return fmt.Errorf("load TLS key pair: %w", err)
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, srv.TLSConfig)
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	logger.Info(ctx, "Now listening", "address", ln.Addr().String(), "tls", cfg.TLSCertFile != "")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Stopping listener...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-shutdownCtx.Done():
		if shutdownErr != nil {
			return shutdownErr
		}
		return shutdownCtx.Err()
	}

	return shutdownErr
}
