package testsupport

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"anchorprint/internal"
	"anchorprint/internal/config"
	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// ErrFakeFailure is returned by a FakeHost configured to fail.
var ErrFakeFailure = errors.New("fake host failure")

// FakeHost is a deterministic host.Provider. Zero-valued fields behave as
// "capability missing"; use NewFakeHost for a fully capable host.
type FakeHost struct {
	Secure bool
	Denied map[string]bool

	GraphicsInfo  host.GraphicsInfo
	GraphicsErr   error
	Extensions    []string
	ExtensionsErr error
	Adapter       host.AdapterInfo
	AdapterErr    error

	AudioSamples []float32
	AudioErr     error

	KeySystems     map[string]bool
	KeySystemErr   error
	KeySystemDelay time.Duration

	MathFuncs host.MathFuncs

	// ClockStep is added to the fake clock on every Now call.
	ClockStep time.Duration
	// Resolution is the declared clock resolution; zero means undeclared.
	Resolution time.Duration

	HardwareInfo host.Hardware
	HardwareErr  error

	// PanicIn names a method (e.g. "Graphics") that panics when called.
	PanicIn string

	mu    sync.Mutex
	calls map[string]int
	clock atomic.Int64
}

var _ host.Provider = (*FakeHost)(nil)

// NewFakeHost returns a fake with every capability present.
func NewFakeHost() *FakeHost {
	samples := make([]float32, 5000)
	for i := range samples {
		samples[i] = float32(i%7) / 10
	}
	return &FakeHost{
		Secure: true,
		GraphicsInfo: host.GraphicsInfo{
			Vendor:           "WebKit",
			Renderer:         "WebKit WebGL",
			UnmaskedVendor:   "Google Inc. (NVIDIA)",
			UnmaskedRenderer: "ANGLE (NVIDIA, NVIDIA GeForce GTX 1050 Ti (0x00001C82) Direct3D11 vs_5_0 ps_5_0, D3D11-27.21.14.5671)",
			Version:          "WebGL 1.0 (OpenGL ES 2.0 Chromium)",
		},
		Extensions:   []string{"OES_texture_float", "WEBGL_debug_renderer_info", "ANGLE_instanced_arrays"},
		Adapter:      host.AdapterInfo{Vendor: "nvidia", Architecture: "pascal"},
		AudioSamples: samples,
		KeySystems: map[string]bool{
			host.KeySystemClearKey: true,
			host.KeySystemWidevine: true,
		},
		MathFuncs: host.MathFuncs{
			Acos: math.Acos, Acosh: math.Acosh, Asinh: math.Asinh, Atanh: math.Atanh, Atan: math.Atan,
			Sin: math.Sin, Sinh: math.Sinh, Cos: math.Cos, Cosh: math.Cosh, Tan: math.Tan, Tanh: math.Tanh,
			Exp: math.Exp, Expm1: math.Expm1, Log1p: math.Log1p,
			Pow: math.Pow,
		},
		ClockStep: 100 * time.Microsecond,
		HardwareInfo: host.Hardware{
			Concurrency: 8,
			MemoryBytes: 16 << 30,
			Platform:    "Linux x86_64",
		},
	}
}

// NewFailingHost returns a fake on which every capability call fails.
func NewFailingHost() *FakeHost {
	return &FakeHost{
		GraphicsErr:   ErrFakeFailure,
		ExtensionsErr: ErrFakeFailure,
		AdapterErr:    ErrFakeFailure,
		AudioErr:      ErrFakeFailure,
		KeySystemErr:  ErrFakeFailure,
		HardwareErr:   ErrFakeFailure,
	}
}

// Calls returns how many times method was invoked.
func (f *FakeHost) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeHost) record(method string) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
	f.mu.Unlock()

	if f.PanicIn == method {
		panic("fake host: " + method)
	}
}

func (f *FakeHost) SecureContext() bool { return f.Secure }

func (f *FakeHost) Allowed(feature string) bool { return !f.Denied[feature] }

func (f *FakeHost) Graphics(ctx context.Context) (host.GraphicsInfo, error) {
	f.record("Graphics")
	if f.GraphicsErr != nil {
		return host.GraphicsInfo{}, f.GraphicsErr
	}
	return f.GraphicsInfo, nil
}

func (f *FakeHost) GraphicsExtensions(ctx context.Context) ([]string, error) {
	f.record("GraphicsExtensions")
	if f.ExtensionsErr != nil {
		return nil, f.ExtensionsErr
	}
	if f.Extensions == nil {
		return nil, host.ErrUnsupported
	}
	return append([]string(nil), f.Extensions...), nil
}

func (f *FakeHost) ComputeAdapter(ctx context.Context) (host.AdapterInfo, error) {
	f.record("ComputeAdapter")
	if f.AdapterErr != nil {
		return host.AdapterInfo{}, f.AdapterErr
	}
	return f.Adapter, nil
}

func (f *FakeHost) RenderAudio(ctx context.Context) ([]float32, error) {
	f.record("RenderAudio")
	if f.AudioErr != nil {
		return nil, f.AudioErr
	}
	return f.AudioSamples, nil
}

func (f *FakeHost) RequestKeySystem(ctx context.Context, keySystem string) (bool, error) {
	f.record("RequestKeySystem")
	if f.KeySystemDelay > 0 {
		time.Sleep(f.KeySystemDelay) // simulates a hung negotiation
	}
	if f.KeySystemErr != nil {
		return false, f.KeySystemErr
	}
	return f.KeySystems[keySystem], nil
}

func (f *FakeHost) Math() host.MathFuncs {
	f.record("Math")
	return f.MathFuncs
}

func (f *FakeHost) Now() time.Duration {
	return time.Duration(f.clock.Add(int64(f.ClockStep)))
}

func (f *FakeHost) ClockResolution() (time.Duration, error) {
	f.record("ClockResolution")
	if f.Resolution <= 0 {
		return 0, host.ErrUnsupported
	}
	return f.Resolution, nil
}

func (f *FakeHost) Hardware() (host.Hardware, error) {
	f.record("Hardware")
	if f.HardwareErr != nil {
		return host.Hardware{}, f.HardwareErr
	}
	return f.HardwareInfo, nil
}

// FixedBag returns a fully populated bag with a materialized audio value.
func FixedBag() *signals.Bag {
	return &signals.Bag{
		GraphicsBasics: signals.Some(signals.GraphicsBasics{
			Vendor:           "WebKit",
			Renderer:         "WebKit WebGL",
			UnmaskedVendor:   "  Apple Inc.  ",
			UnmaskedRenderer: "Apple M1",
		}),
		GraphicsExtensions: signals.Some(signals.GraphicsExtensions{
			Extensions: []string{"OES_texture_float", "ANGLE_instanced_arrays"},
		}),
		ComputeAdapter: signals.Some(signals.ComputeAdapter{Vendor: "Apple", Architecture: "metal-3"}),
		Audio:          signals.Materialized(124.04347527516074),
		Math: signals.Some(signals.MathFingerprint{
			Values: map[string]float64{"acos": 1.4473588658278522, "exp": 2.718281828459045},
		}),
		DRM: signals.Some(signals.DRMCapability{
			KeySystems: map[string]bool{host.KeySystemClearKey: true, host.KeySystemFairPlay: true},
		}),
		Timing:   signals.Some(signals.TimingPrecision{ResolutionNs: 100000, Samples: 5000}),
		Hardware: signals.Some(signals.HardwareHints{Concurrency: 8, MemoryGB: 8, Platform: "MacIntel"}),
	}
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// TestConfig returns a test environment configuration with default settings.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	config.Reset()
	t.Cleanup(config.Reset)

	cfg := config.GetConfig()
	cfg.Environment = config.Test
	return cfg
}

// CreateMinimalTestApp creates an application with all routes on top of the
// given fake host. Nil means NewFakeHost.
func CreateMinimalTestApp(t *testing.T, fake *FakeHost) *internal.Application {
	t.Helper()

	if fake == nil {
		fake = NewFakeHost()
	}
	app, err := internal.NewAppWithHost(TestConfig(t), fake, GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { app.Shutdown(context.Background()) })
	return app
}
