package sources_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
	"anchorprint/internal/sources"
	"anchorprint/internal/testsupport"
)

func TestGraphicsSources(t *testing.T) {
	ctx := context.Background()

	t.Run("copies host graphics strings", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		got, err := (&sources.GraphicsBasics{Host: fake}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, "WebKit", got.Vendor)
		assert.Equal(t, fake.GraphicsInfo.UnmaskedRenderer, got.UnmaskedRenderer)
	})

	t.Run("maps unsupported onto unavailable", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.GraphicsErr = host.ErrUnsupported
		_, err := (&sources.GraphicsBasics{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
	})

	t.Run("returns extensions", func(t *testing.T) {
		got, err := (&sources.GraphicsExtensions{Host: testsupport.NewFakeHost()}).Measure(ctx)
		require.NoError(t, err)
		assert.Len(t, got.Extensions, 3)
	})
}

func TestComputeAdapterSource(t *testing.T) {
	ctx := context.Background()

	t.Run("short circuits outside a secure context", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.Secure = false

		_, err := (&sources.ComputeAdapter{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
		assert.Zero(t, fake.Calls("ComputeAdapter"), "gated source must not touch the host")
	})

	t.Run("reports the adapter", func(t *testing.T) {
		got, err := (&sources.ComputeAdapter{Host: testsupport.NewFakeHost()}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pascal", got.Architecture)
	})
}

func TestAudioSource(t *testing.T) {
	ctx := context.Background()

	t.Run("sums the tail window of the render", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		var want float64
		for _, v := range fake.AudioSamples[4500:5000] {
			want += float64(v)
		}

		got, err := (&sources.Audio{Host: fake}).Measure(ctx)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("respects the audio permission", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.Denied = map[string]bool{host.FeatureAudio: true}

		_, err := (&sources.Audio{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
		assert.Zero(t, fake.Calls("RenderAudio"))
	})

	t.Run("rejects a short render", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.AudioSamples = fake.AudioSamples[:100]

		_, err := (&sources.Audio{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
	})

	t.Run("works against the system renderer", func(t *testing.T) {
		sys := host.NewSystem(host.SystemOptions{Root: t.TempDir()})
		a, err := (&sources.Audio{Host: sys}).Measure(ctx)
		require.NoError(t, err)
		b, err := (&sources.Audio{Host: sys}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Positive(t, a)
	})
}

func TestMathSource(t *testing.T) {
	ctx := context.Background()

	t.Run("evaluates every configured function", func(t *testing.T) {
		got, err := (&sources.Math{Host: testsupport.NewFakeHost()}).Measure(ctx)
		require.NoError(t, err)
		assert.Len(t, got.Values, 15)
		assert.InDelta(t, 2.718281828459045, got.Values["exp"], 1e-15)
		assert.False(t, got.Exact)
	})

	t.Run("skips missing functions", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.MathFuncs = host.MathFuncs{Exp: func(float64) float64 { return 3 }, Exact: true}

		got, err := (&sources.Math{Host: fake}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"exp": 3}, got.Values)
		assert.True(t, got.Exact)
	})

	t.Run("is unavailable without functions", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.MathFuncs = host.MathFuncs{}
		_, err := (&sources.Math{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
	})
}

func TestDRMSource(t *testing.T) {
	ctx := context.Background()

	t.Run("queries the default key systems", func(t *testing.T) {
		got, err := (&sources.DRM{Host: testsupport.NewFakeHost()}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{
			host.KeySystemClearKey:  true,
			host.KeySystemWidevine:  true,
			host.KeySystemPlayReady: false,
			host.KeySystemFairPlay:  false,
		}, got.KeySystems)
	})

	t.Run("checks the permission policy first", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.Denied = map[string]bool{host.FeatureEncryptedMedia: true}

		_, err := (&sources.DRM{Host: fake}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
		assert.Zero(t, fake.Calls("RequestKeySystem"))
	})

	t.Run("treats key system errors as unsupported", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.KeySystemErr = testsupport.ErrFakeFailure

		got, err := (&sources.DRM{Host: fake, KeySystems: []string{host.KeySystemClearKey}}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{host.KeySystemClearKey: false}, got.KeySystems)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := (&sources.DRM{Host: testsupport.NewFakeHost()}).Measure(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTimingSource(t *testing.T) {
	ctx := context.Background()

	t.Run("finds the clock step", func(t *testing.T) {
		got, err := (&sources.Timing{Host: testsupport.NewFakeHost(), Iterations: 100}).Measure(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(100*time.Microsecond), got.ResolutionNs)
		assert.Equal(t, 100, got.Samples)
	})

	t.Run("prefers the declared resolution", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.Resolution = time.Nanosecond
		fake.ClockStep = 37 * time.Nanosecond

		for i := 0; i < 20; i++ {
			got, err := (&sources.Timing{Host: fake, Iterations: 100}).Measure(ctx)
			require.NoError(t, err)
			assert.Equal(t, float64(1), got.ResolutionNs)
			assert.Zero(t, got.Samples)
		}
	})

	t.Run("is unavailable for a frozen clock", func(t *testing.T) {
		fake := testsupport.NewFakeHost()
		fake.ClockStep = 0
		_, err := (&sources.Timing{Host: fake, Iterations: 10}).Measure(ctx)
		assert.ErrorIs(t, err, signals.ErrUnavailable)
	})
}

func TestHardwareSource(t *testing.T) {
	t.Run("converts memory to gigabytes", func(t *testing.T) {
		got, err := (&sources.Hardware{Host: testsupport.NewFakeHost()}).Measure(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 8, got.Concurrency)
		assert.Equal(t, 16.0, got.MemoryGB)
		assert.Equal(t, "Linux x86_64", got.Platform)
	})

	t.Run("wraps host errors", func(t *testing.T) {
		_, err := (&sources.Hardware{Host: testsupport.NewFailingHost()}).Measure(context.Background())
		assert.ErrorIs(t, err, testsupport.ErrFakeFailure)
	})
}
