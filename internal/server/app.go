// Package server wires the homeserver together: it loads the signing key,
// brings the store to the expected schema version, assembles the dispatch
// tree and runs the listener and the optional admin channel until a
// shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/homeserver/internal/cryptox"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/dmitrijs2005/homeserver/internal/server/config"
	"github.com/dmitrijs2005/homeserver/internal/server/listener"
	"github.com/dmitrijs2005/homeserver/internal/server/resources"
	"github.com/dmitrijs2005/homeserver/internal/server/storage"
	"github.com/dmitrijs2005/homeserver/internal/server/users"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/homeserver/internal/server/grpc"
)

// adminHost is the only address the admin channel listens on.
const adminHost = "127.0.0.1"

type App struct {
	config      *config.Config
	logger      logging.Logger
	signingKey  cryptox.SigningKey
	store       *storage.Handle
	userService *users.Service
	tree        dispatch.Node
	admin       *gs.AdminServer
}

// Option customises NewApp.
type Option func(*appOptions)

type appOptions struct {
	logger    logging.Logger
	logWriter io.Writer
}

// WithLogger makes the app log through l instead of building a logger from
// the configuration.
func WithLogger(l logging.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithLogWriter sends the configured logger's output to w.
func WithLogWriter(w io.Writer) Option {
	return func(o *appOptions) { o.logWriter = w }
}

// NewApp performs every startup step that must finish before the listener
// starts. A store with an incompatible schema version fails here.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	o := appOptions{logWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Backend: c.LogBackend,
			Level:   c.LogLevel,
			Format:  c.LogFormat,
			Writer:  o.logWriter,
		})
		if err != nil {
			return nil, fmt.Errorf("logging init error: %w", err)
		}
	}

	for _, w := range c.Warnings {
		logger.Warn(ctx, w)
	}
	logger.Info(ctx, "Server hostname", "server_name", c.ServerName, "domain_with_port", c.DomainWithPort())

	key, created, err := cryptox.LoadOrCreateSigningKey(c.SigningKeyPath)
	if err != nil {
		return nil, fmt.Errorf("signing key error: %w", err)
	}
	if created {
		logger.Info(ctx, "Generated signing key", "path", c.SigningKeyPath, "key_id", key.KeyID())
	}

	store, err := storage.Open(ctx, storage.Config{
		Engine:   c.DatabaseEngine,
		Source:   c.DatabasePath,
		MaxConns: c.DatabaseMaxConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:      c,
		logger:      logger,
		signingKey:  key,
		store:       store,
		userService: users.NewService(users.NewSQLRepository(store), c.ServerName),
	}

	if err := app.buildTree(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if c.AdminPort > 0 {
		admin, err := gs.NewAdminServer(gs.AdminConfig{
			Host:         adminHost,
			Port:         c.AdminPort,
			User:         c.AdminUser,
			PasswordHash: c.AdminPasswordHash,
		}, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("admin channel error: %w", err)
		}
		admin.SetServing(gs.ComponentStore, true)
		admin.SetServing(gs.ComponentDispatch, true)
		app.admin = admin
	}

	return app, nil
}

func (app *App) buildTree(ctx context.Context) error {
	mounts, err := resources.Mounts(ctx, app.config, resources.Deps{
		Users:      app.userService,
		SigningKey: app.signingKey,
		Logger:     app.logger,
	})
	if err != nil {
		return fmt.Errorf("resources init error: %w", err)
	}

	for _, m := range mounts {
		app.logger.Info(ctx, fmt.Sprintf("Attaching %s to path %s", dispatch.Describe(m.Node), m.Path))
	}

	tree, err := dispatch.BuildWithRoot(resources.Root(app.config), mounts)
	if err != nil {
		return fmt.Errorf("dispatch tree error: %w", err)
	}
	app.tree = tree
	return nil
}

// Tree is the assembled dispatch tree.
func (app *App) Tree() dispatch.Node {
	return app.tree
}

// Store is the store handle, ready for use.
func (app *App) Store() *storage.Handle {
	return app.store
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or a server
// fails, then closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listener.Run(gctx, listener.Config{
			Addr:            app.config.ListenAddr(),
			TLSCertFile:     app.config.TLSCertFile,
			TLSKeyFile:      app.config.TLSKeyFile,
			ShutdownTimeout: app.config.ShutdownTimeout,
		}, dispatch.NewRouter(app.tree), app.logger)
	})

	if app.admin != nil {
		app.admin.SetServing(gs.ComponentServer, true)
		g.Go(func() error {
			return app.admin.Run(gctx)
		})
	}

	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		app.logger.Error(ctx, "server stopped with error", "error", runErr)
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}
