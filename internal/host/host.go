// Package host abstracts every read of host capabilities so signal sources
// can be exercised against a fake provider in tests.
package host

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned when the host cannot provide a capability.
var ErrUnsupported = errors.New("host capability unsupported")

// Feature names checked through Provider.Allowed.
const (
	FeatureEncryptedMedia = "encrypted-media"
	FeatureAudio          = "audio"
	FeatureCompute        = "compute"
)

// GraphicsInfo is what the host reports about its graphics stack.
type GraphicsInfo struct {
	Vendor                 string
	Renderer               string
	UnmaskedVendor         string
	UnmaskedRenderer       string
	Version                string
	ShadingLanguageVersion string
}

// AdapterInfo describes a compute adapter.
type AdapterInfo struct {
	Vendor       string
	Architecture string
	Device       string
	Description  string
	Features     []string
	Fallback     bool
}

// Hardware is the host's coarse hardware description.
type Hardware struct {
	Concurrency int
	MemoryBytes uint64
	Platform    string
}

// MathFuncs are the float functions sampled by the math source.
type MathFuncs struct {
	Acos, Acosh, Asinh, Atanh, Atan func(float64) float64
	Sin, Sinh, Cos, Cosh, Tan, Tanh func(float64) float64
	Exp, Expm1, Log1p               func(float64) float64
	Pow                             func(x, y float64) float64

	// Exact is set when results are bit-identical across runs and builds.
	Exact bool
}

// Provider is the host capability surface consumed by signal sources.
// Implementations must be safe for concurrent use.
type Provider interface {
	// SecureContext reports whether gated capabilities may be queried at all.
	SecureContext() bool
	// Allowed reports whether the permission policy allows feature.
	Allowed(feature string) bool

	Graphics(ctx context.Context) (GraphicsInfo, error)
	GraphicsExtensions(ctx context.Context) ([]string, error)
	ComputeAdapter(ctx context.Context) (AdapterInfo, error)
	// RenderAudio renders the fingerprint oscillator graph offline and
	// returns the output samples.
	RenderAudio(ctx context.Context) ([]float32, error)
	// RequestKeySystem reports whether a DRM key system is usable.
	RequestKeySystem(ctx context.Context, keySystem string) (bool, error)

	Math() MathFuncs
	// Now returns a monotonic clock reading.
	Now() time.Duration
	// ClockResolution returns the resolution the host declares for the
	// clock behind Now, or ErrUnsupported.
	ClockResolution() (time.Duration, error)
	Hardware() (Hardware, error)
}
