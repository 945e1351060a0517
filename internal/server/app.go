// Package server wires the passvault server together: configuration,
// datastore resilience manager, services, the REST API and the gRPC health
// endpoint. It handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/metrics"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/datastore"
	"github.com/dmitrijs2005/passvault/internal/server/httpserver"
	"github.com/dmitrijs2005/passvault/internal/server/resilience"
	"github.com/dmitrijs2005/passvault/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/passvault/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	manager    *resilience.Manager
	httpServer *httpserver.HTTPServer
	grpcServer *gs.GRPCServer
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	generated, err := c.EnsureSecretKey()
	if err != nil {
		return nil, fmt.Errorf("secret key error: %w", err)
	}
	if generated {
		logger.Warn(ctx, "no JWT secret configured, using a random one; tokens will not survive a restart")
	}

	connector, err := datastore.NewConnector(datastore.Settings{
		DSN:            c.DatabaseDSN,
		DatabaseName:   c.DatabaseName,
		ConnectTimeout: c.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("datastore init error: %w", err)
	}

	manager := resilience.NewManager(connector, managerOptions(c), logger)

	codec, err := secretCodec(c)
	if err != nil {
		return nil, fmt.Errorf("secrets key error: %w", err)
	}
	if c.SecretsKey != "" {
		logger.Info(ctx, "credential secrets are sealed at rest")
	}

	us := services.NewUserService(manager, c, logger)
	cs := services.NewCredentialService(manager, codec, exporter(c), logger)

	handler := httpserver.NewHandler(us, cs, manager, c.IsProduction(), logger)
	router := httpserver.NewRouter(handler, c.AllowedOrigins)

	app := &App{
		config:     c,
		logger:     logger,
		manager:    manager,
		httpServer: httpserver.NewHTTPServer(c.EndpointAddrHTTP, router, logger),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}

	metrics.SetDatastoreState(resilience.Disconnected.String(), stateNames()...)
	manager.OnStateChange(app.onStateChange)

	return app, nil
}

func managerOptions(c *config.Config) resilience.Options {
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return resilience.Options{
		BaseDelay:      c.RetryBaseDelay,
		MaxDelay:       c.RetryMaxDelay,
		MaxRetries:     uint64(retries),
		Production:     c.IsProduction(),
		ConnectTimeout: c.ConnectTimeout,
		ProbeInterval:  c.HealthCheckInterval,
	}
}

func secretCodec(c *config.Config) (cryptox.Codec, error) {
	if c.SecretsKey == "" {
		return cryptox.Plaintext{}, nil
	}
	return cryptox.NewSecretSealer(c.SecretsKey)
}

// exporter keeps a missing S3 configuration as a nil interface.
func exporter(c *config.Config) services.Exporter {
	if e := services.NewS3Exporter(c); e != nil {
		return e
	}
	return nil
}

func stateNames() []string {
	names := make([]string, 0, len(resilience.AllStates))
	for _, s := range resilience.AllStates {
		names = append(names, s.String())
	}
	return names
}

func (app *App) onStateChange(s resilience.State) {
	metrics.SetDatastoreState(s.String(), stateNames()...)
	app.grpcServer.SetServing(s == resilience.Connected)
	app.logger.Info(context.Background(), "datastore state changed", "state", s.String())
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or one of the components fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.manager.Run(ctx) })
	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.grpcServer.Run(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
