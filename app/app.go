// Package app provides the public API of anchorprint: load an Agent once,
// then ask it for the visitor identifier as often as needed.
package app

import (
	"context"
	"log/slog"

	"anchorprint/internal"
	"anchorprint/internal/agent"
	"anchorprint/internal/anchor"
	"anchorprint/internal/collector"
	"anchorprint/internal/config"
	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// Re-export core types
type (
	Agent        = agent.Agent
	Result       = agent.Result
	GetOptions   = agent.GetOptions
	Anchor       = anchor.Payload
	Signals      = signals.Bag
	HostProvider = host.Provider
	Application  = internal.Application
	Config       = config.Config
)

// Version of the identifier format.
const Version = agent.Version

// Options configures Load.
type Options struct {
	// Debug logs a dump of every Get result.
	Debug  bool
	Logger *slog.Logger
}

// GetConfig returns the application configuration
func GetConfig() *Config {
	return config.GetConfig()
}

// NewApp creates the HTTP application with default routes
func NewApp() (*Application, error) {
	return internal.NewApp()
}

// Load starts collecting signals from the machine this process runs on and
// returns immediately. Timeouts, denied features and precision come from the
// configuration.
func Load(ctx context.Context, opts Options) *Agent {
	cfg := config.GetConfig()
	return LoadWithHost(ctx, host.NewSystem(host.SystemOptions{
		Root:           cfg.HostRoot,
		DeniedFeatures: cfg.DeniedFeatures,
	}), opts)
}

// LoadWithHost is Load for an arbitrary host provider.
func LoadWithHost(ctx context.Context, p HostProvider, opts Options) *Agent {
	cfg := config.GetConfig()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := collector.New(collector.DefaultSources(p), collector.Options{
		Timeouts: cfg.SourceTimeouts(),
		Logger:   logger,
		Workers:  cfg.CollectorWorkers,
	})
	return agent.Load(ctx, c, agent.Options{
		Debug:  opts.Debug || cfg.Debug,
		Logger: logger,
		Policy: cfg.Policy(),
	})
}
