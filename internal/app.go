// Package internal wires the HTTP service together.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"anchorprint/internal/agent"
	"anchorprint/internal/collector"
	"anchorprint/internal/config"
	"anchorprint/internal/host"
	"anchorprint/internal/logging"
)

// Application owns the fiber server and the process-wide host Agent.
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Server   *fiber.App
	Agent    *agent.Agent
	Visitors *cache.Cache

	logCloser io.Closer
	cancel    context.CancelFunc
}

// NewApp creates a new application instance from the global configuration.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates an application that identifies the real host.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger, closer := logging.New(cfg)
	provider := host.NewSystem(host.SystemOptions{
		Root:           cfg.HostRoot,
		DeniedFeatures: cfg.DeniedFeatures,
	})
	app, err := NewAppWithHost(cfg, provider, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

// NewAppWithHost creates an application on top of an arbitrary host provider.
// The host collection round starts immediately.
func NewAppWithHost(cfg *config.Config, provider host.Provider, logger *slog.Logger) (*Application, error) {
	if provider == nil {
		return nil, errors.New("host provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := collector.New(collector.DefaultSources(provider), collector.Options{
		Timeouts: cfg.SourceTimeouts(),
		Logger:   logger,
		Workers:  cfg.CollectorWorkers,
	})

	ctx, cancel := context.WithCancel(context.Background())
	hostAgent := agent.Load(ctx, c, agent.Options{
		Debug:  cfg.Debug,
		Logger: logger,
		Policy: cfg.Policy(),
	})

	ttl := cfg.VisitorCacheTTL()
	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Agent:    hostAgent,
		Visitors: cache.New(ttl, 2*ttl),
		cancel:   cancel,
	}
	app.Server = fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: !cfg.IsDevelopment(),
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		BodyLimit:             256 * 1024,
	})
	MountAppRoutes(app)
	return app, nil
}

// StartAsync binds the configured port and serves in the background.
func (a *Application) StartAsync() error {
	ln, err := net.Listen("tcp", ":"+a.Config.AppPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", a.Config.AppPort, err)
	}

	go func() {
		if err := a.Server.Listener(ln); err != nil {
			a.Logger.Error("Server stopped", slog.Any("error", err))
		}
	}()
	a.Logger.Info("Server listening", slog.String("port", a.Config.AppPort))
	return nil
}

// Shutdown stops the server, aborts a pending host round and flushes logs.
func (a *Application) Shutdown(ctx context.Context) error {
	err := a.Server.ShutdownWithContext(ctx)
	a.cancel()
	if a.logCloser != nil {
		err = errors.Join(err, a.logCloser.Close())
	}
	return err
}
