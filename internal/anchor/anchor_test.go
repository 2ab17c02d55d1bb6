package anchor_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorprint/internal/anchor"
	"anchorprint/internal/hasher"
	"anchorprint/internal/signals"
	"anchorprint/internal/testsupport"
)

func TestNormalizeString(t *testing.T) {
	t.Run("trims and lower-cases", func(t *testing.T) {
		assert.Equal(t, signals.Some("apple inc."), anchor.NormalizeString("  Apple Inc.  "))
	})

	t.Run("empty input is absent", func(t *testing.T) {
		assert.False(t, anchor.NormalizeString("").Present())
		assert.False(t, anchor.NormalizeString(" \t\n ").Present())
	})

	t.Run("collapses inner whitespace", func(t *testing.T) {
		assert.Equal(t, signals.Some("intel iris opengl engine"), anchor.NormalizeString("Intel  Iris\tOpenGL Engine"))
	})

	t.Run("composes unicode", func(t *testing.T) {
		decomposed := "Re\u0301seau"
		assert.Equal(t, signals.Some("r\u00e9seau"), anchor.NormalizeString(decomposed))
	})
}

func TestNormalizeRenderer(t *testing.T) {
	t.Run("strips ANGLE driver details", func(t *testing.T) {
		got := anchor.NormalizeRenderer("ANGLE (NVIDIA, NVIDIA GeForce GTX 1050 Ti (0x00001C82) Direct3D11 vs_5_0 ps_5_0, D3D11-27.21.14.5671)")
		assert.Equal(t, signals.Some("angle (nvidia, nvidia geforce gtx 1050 ti)"), got)
	})

	t.Run("keeps renderers without noise", func(t *testing.T) {
		got := anchor.NormalizeRenderer("ANGLE (Apple, ANGLE Metal Renderer: Apple M1, Unspecified Version)")
		assert.Equal(t, signals.Some("angle (apple, angle metal renderer: apple m1, unspecified version)"), got)
	})

	t.Run("stable across driver updates", func(t *testing.T) {
		a := anchor.NormalizeRenderer("ANGLE (Intel, Intel(R) UHD Graphics 620 (0x00005917) Direct3D11 vs_5_0 ps_5_0, D3D11-26.20.100.7262)")
		b := anchor.NormalizeRenderer("ANGLE (Intel, Intel(R) UHD Graphics 620 (0x00005917) Direct3D11 vs_5_0 ps_5_0, D3D11-27.20.100.8681)")
		assert.Equal(t, a, b)
	})

	t.Run("host driver ids are removed", func(t *testing.T) {
		assert.Equal(t, signals.Some("nvidia"), anchor.NormalizeRenderer("nvidia (0x1c82)"))
	})
}

func TestRoundSignificant(t *testing.T) {
	assert.Equal(t, 124.043475, anchor.RoundSignificant(124.04347527516074, 9))
	assert.Equal(t, 1.44558, anchor.RoundSignificant(1.4455800000000001, 12))
	assert.Equal(t, 0.0, anchor.RoundSignificant(0, 5))
	assert.True(t, math.IsNaN(anchor.RoundSignificant(math.NaN(), 5)))
	assert.Equal(t, 3.14159, anchor.RoundSignificant(3.14159, 0))
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("derives every anchor field", func(t *testing.T) {
		p := anchor.Build(ctx, testsupport.FixedBag())

		assert.Equal(t, signals.Some("apple inc."), p.GPUVendor)
		assert.Equal(t, signals.Some("apple m1"), p.GPURenderer)
		ext, ok := p.GPUExtensions.Get()
		require.True(t, ok)
		assert.Equal(t, 2, ext.Count)
		assert.Equal(t, hasher.Hash("angle_instanced_arrays,oes_texture_float"), ext.Digest)
		adapter, ok := p.Adapter.Get()
		require.True(t, ok)
		assert.Equal(t, signals.Some("apple"), adapter.Vendor)
		assert.Equal(t, signals.Some("metal-3"), adapter.Architecture)
		assert.Equal(t, signals.Some(124.043475), p.Audio)
		assert.Equal(t, signals.Some(map[string]float64{"acos": 1.44735886583, "exp": 2.71828182846}), p.Math)
		assert.Equal(t, signals.Some(map[string]bool{"org.w3.clearkey": true, "com.apple.fps": true}), p.DRM)
		assert.Equal(t, signals.Some(17), p.TimerClass)
		assert.Equal(t, signals.Some(8), p.Concurrency)
		assert.Equal(t, signals.Some(8.0), p.MemoryClass)
		assert.Equal(t, signals.Some("macintel"), p.Platform)
	})

	t.Run("is idempotent", func(t *testing.T) {
		bag := testsupport.FixedBag()
		a := anchor.Build(ctx, bag)
		b := anchor.Build(ctx, bag)
		assert.Equal(t, a, b)

		ha, err := hasher.Sum(a)
		require.NoError(t, err)
		hb, err := hasher.Sum(b)
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
	})

	t.Run("deferred audio yields the same anchor as materialized audio", func(t *testing.T) {
		materialized := testsupport.FixedBag()
		deferred := testsupport.FixedBag()
		deferred.Audio = signals.Defer(func(context.Context) (float64, error) {
			return 124.04347527516074, nil
		})

		a := anchor.Build(ctx, materialized)
		b := anchor.Build(ctx, deferred)
		assert.Equal(t, a, b)
	})

	t.Run("failed audio resolution leaves audio absent", func(t *testing.T) {
		bag := testsupport.FixedBag()
		bag.Audio = signals.Defer(func(context.Context) (float64, error) {
			return 0, errors.New("suspended audio context")
		})
		p := anchor.Build(ctx, bag)
		assert.False(t, p.Audio.Present())
		assert.True(t, p.GPUVendor.Present())
	})

	t.Run("ignores per-session details", func(t *testing.T) {
		a := testsupport.FixedBag()
		b := testsupport.FixedBag()
		b.Timing = signals.Some(signals.TimingPrecision{ResolutionNs: 101000, Samples: 1234})
		b.GraphicsBasics = signals.Some(signals.GraphicsBasics{
			Vendor:           "WebKit",
			Renderer:         "WebKit WebGL",
			UnmaskedVendor:   "APPLE INC.",
			UnmaskedRenderer: "  Apple   M1 ",
		})
		b.GraphicsExtensions = signals.Some(signals.GraphicsExtensions{
			Extensions: []string{"ANGLE_instanced_arrays", "OES_texture_float", "oes_texture_float"},
		})
		assert.Equal(t, anchor.Build(ctx, a), anchor.Build(ctx, b))
	})

	t.Run("keeps exact math values raw", func(t *testing.T) {
		bag := &signals.Bag{Math: signals.Some(signals.MathFingerprint{
			Values: map[string]float64{"acos": 1.4473588658278522, "bad": math.Inf(1)},
			Exact:  true,
		})}
		p := anchor.Build(ctx, bag)
		assert.Equal(t, signals.Some(map[string]float64{"acos": 1.4473588658278522}), p.Math)
	})

	t.Run("honours a custom policy", func(t *testing.T) {
		bag := &signals.Bag{Audio: signals.Materialized(124.04347527516074)}
		p := anchor.NewBuilder(anchor.Policy{AudioDigits: 4}).Build(ctx, bag)
		assert.Equal(t, signals.Some(124.0), p.Audio)
	})

	t.Run("falls back to masked graphics strings", func(t *testing.T) {
		bag := &signals.Bag{GraphicsBasics: signals.Some(signals.GraphicsBasics{Vendor: "Mozilla", Renderer: "Mozilla"})}
		p := anchor.Build(ctx, bag)
		assert.Equal(t, signals.Some("mozilla"), p.GPUVendor)
		assert.Equal(t, signals.Some("mozilla"), p.GPURenderer)
	})

	t.Run("buckets memory to powers of two", func(t *testing.T) {
		for gb, want := range map[float64]float64{15.6: 16, 0.1: 0.25, 3: 4, 0.5: 0.5} {
			bag := &signals.Bag{Hardware: signals.Some(signals.HardwareHints{MemoryGB: gb})}
			assert.Equal(t, signals.Some(want), anchor.Build(ctx, bag).MemoryClass, "memory %v", gb)
		}
	})

	t.Run("an empty bag gives an empty anchor", func(t *testing.T) {
		p := anchor.Build(ctx, &signals.Bag{})
		assert.Equal(t, anchor.Payload{}, p)

		canonical, err := hasher.Canonicalize(p)
		require.NoError(t, err)
		assert.Equal(t, "{}", canonical)
	})

	t.Run("canonical form of a math-only anchor is sorted json", func(t *testing.T) {
		bag := &signals.Bag{Math: signals.Some(signals.MathFingerprint{
			Values: map[string]float64{"exp": 2.71828, "acos": 1.44558},
		})}
		canonical, err := hasher.Canonicalize(anchor.Build(ctx, bag))
		require.NoError(t, err)
		assert.Equal(t, `{"math":{"acos":1.44558,"exp":2.71828}}`, canonical)

		assert.Equal(t, hasher.Hash(canonical), hasher.Hash(canonical))
		assert.Len(t, hasher.Hash(canonical), 16)
	})
}
