package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"anchorprint/internal/anchor"
	"anchorprint/internal/config"
	"anchorprint/internal/signals"
)

func TestGetConfig(t *testing.T) {
	t.Run("uses defaults", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)

		cfg := config.GetConfig()
		assert.Equal(t, "anchorprint", cfg.AppName)
		assert.Equal(t, "3000", cfg.AppPort)
		assert.True(t, cfg.IsDevelopment())
		assert.Equal(t, config.LogLevelInfo, cfg.LogLevel)
		assert.False(t, cfg.Debug)
		assert.Empty(t, cfg.DeniedFeatures)
		assert.Equal(t, anchor.DefaultPolicy, cfg.Policy())
		assert.Equal(t, 30*time.Minute, cfg.VisitorCacheTTL())
		assert.Equal(t, map[string]time.Duration{
			signals.NameDRM:            time.Second,
			signals.NameComputeAdapter: time.Second,
			signals.NameAudio:          time.Second,
		}, cfg.SourceTimeouts())
	})

	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("ANCHORPRINT_ENV", config.Test)
		t.Setenv("ANCHORPRINT_APP_PORT", "8080")
		t.Setenv("ANCHORPRINT_DEBUG", "true")
		t.Setenv("ANCHORPRINT_DRM_TIMEOUT_MS", "250")
		t.Setenv("ANCHORPRINT_AUDIO_TIMEOUT_MS", "0")
		t.Setenv("ANCHORPRINT_MATH_DIGITS", "10")
		t.Setenv("ANCHORPRINT_DENIED_FEATURES", "audio, encrypted-media")
		config.Reset()
		t.Cleanup(config.Reset)

		cfg := config.GetConfig()
		assert.True(t, cfg.IsTest())
		assert.Equal(t, "8080", cfg.AppPort)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 10, cfg.Policy().MathDigits)
		assert.Equal(t, []string{"audio", "encrypted-media"}, cfg.DeniedFeatures)

		timeouts := cfg.SourceTimeouts()
		assert.Equal(t, 250*time.Millisecond, timeouts[signals.NameDRM])
		_, ok := timeouts[signals.NameAudio]
		assert.False(t, ok, "zero disables the limit")
	})

	t.Run("caches the configuration until reset", func(t *testing.T) {
		config.Reset()
		t.Cleanup(config.Reset)

		first := config.GetConfig()
		t.Setenv("ANCHORPRINT_APP_NAME", "changed")
		assert.Same(t, first, config.GetConfig())

		config.Reset()
		assert.Equal(t, "changed", config.GetConfig().AppName)
	})
}
