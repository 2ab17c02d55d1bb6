// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"anchorprint/internal/anchor"
	"anchorprint/internal/signals"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	Debug       bool     `mapstructure:"debug"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Collection settings
	DRMTimeoutMs     int      `mapstructure:"drmtimeoutms"`
	ComputeTimeoutMs int      `mapstructure:"computetimeoutms"`
	AudioTimeoutMs   int      `mapstructure:"audiotimeoutms"`
	CollectorWorkers int      `mapstructure:"collectorworkers"`
	DeniedFeatures   []string `mapstructure:"deniedfeatures"`
	HostRoot         string   `mapstructure:"hostroot"`

	// Precision policy
	MathDigits  int `mapstructure:"mathdigits"`
	AudioDigits int `mapstructure:"audiodigits"`

	// Visitor cache
	VisitorCacheTTLSeconds int `mapstructure:"visitorcachettlseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "anchorprint")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelInfo))
		v.SetDefault("debug", false)
		v.SetDefault("logsdir", "")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("drmtimeoutms", 1000)
		v.SetDefault("computetimeoutms", 1000)
		v.SetDefault("audiotimeoutms", 1000)
		v.SetDefault("collectorworkers", 0)
		v.SetDefault("deniedfeatures", []string{})
		v.SetDefault("hostroot", "/")
		v.SetDefault("mathdigits", anchor.DefaultPolicy.MathDigits)
		v.SetDefault("audiodigits", anchor.DefaultPolicy.AudioDigits)
		v.SetDefault("visitorcachettlseconds", 1800)

		v.BindEnv("appname", "ANCHORPRINT_APP_NAME")
		v.BindEnv("appport", "ANCHORPRINT_APP_PORT")
		v.BindEnv("environment", "ANCHORPRINT_ENV")
		v.BindEnv("loglevel", "ANCHORPRINT_LOG_LEVEL")
		v.BindEnv("debug", "ANCHORPRINT_DEBUG")
		v.BindEnv("logsdir", "ANCHORPRINT_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "ANCHORPRINT_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "ANCHORPRINT_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "ANCHORPRINT_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("drmtimeoutms", "ANCHORPRINT_DRM_TIMEOUT_MS")
		v.BindEnv("computetimeoutms", "ANCHORPRINT_COMPUTE_TIMEOUT_MS")
		v.BindEnv("audiotimeoutms", "ANCHORPRINT_AUDIO_TIMEOUT_MS")
		v.BindEnv("collectorworkers", "ANCHORPRINT_COLLECTOR_WORKERS")
		v.BindEnv("deniedfeatures", "ANCHORPRINT_DENIED_FEATURES")
		v.BindEnv("hostroot", "ANCHORPRINT_HOST_ROOT")
		v.BindEnv("mathdigits", "ANCHORPRINT_MATH_DIGITS")
		v.BindEnv("audiodigits", "ANCHORPRINT_AUDIO_DIGITS")
		v.BindEnv("visitorcachettlseconds", "ANCHORPRINT_VISITOR_CACHE_TTL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}
		cfg.DeniedFeatures = splitList(cfg.DeniedFeatures)

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}
	})
	return cfg
}

// splitList accepts both a list and a single comma separated value, which is
// what an environment variable yields.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.DRMTimeoutMs < 0 || c.ComputeTimeoutMs < 0 || c.AudioTimeoutMs < 0 {
		return fmt.Errorf("source timeouts must not be negative")
	}
	if c.MathDigits < 1 || c.MathDigits > 17 || c.AudioDigits < 1 || c.AudioDigits > 17 {
		return fmt.Errorf("precision digits must be between 1 and 17")
	}
	if c.VisitorCacheTTLSeconds <= 0 {
		return fmt.Errorf("invalid visitor cache ttl: %d", c.VisitorCacheTTLSeconds)
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// SourceTimeouts returns the soft per-source limits keyed by signal name.
// A zero setting leaves the source without a limit.
func (c *Config) SourceTimeouts() map[string]time.Duration {
	timeouts := make(map[string]time.Duration, 3)
	set := func(name string, ms int) {
		if ms > 0 {
			timeouts[name] = time.Duration(ms) * time.Millisecond
		}
	}
	set(signals.NameDRM, c.DRMTimeoutMs)
	set(signals.NameComputeAdapter, c.ComputeTimeoutMs)
	set(signals.NameAudio, c.AudioTimeoutMs)
	return timeouts
}

// Policy returns the precision policy for the anchor builder.
func (c *Config) Policy() anchor.Policy {
	return anchor.Policy{MathDigits: c.MathDigits, AudioDigits: c.AudioDigits}
}

// VisitorCacheTTL returns how long identified visitors stay retrievable.
func (c *Config) VisitorCacheTTL() time.Duration {
	return time.Duration(c.VisitorCacheTTLSeconds) * time.Second
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
