// Package signals defines the signal bag produced by one collection round
// and the contract every signal source satisfies.
package signals

import (
	"context"
	"errors"
)

// Signal names, also used as JSON keys, metric labels and timeout keys.
const (
	NameGraphicsBasics     = "graphicsBasics"
	NameGraphicsExtensions = "graphicsExtensions"
	NameComputeAdapter     = "computeAdapter"
	NameAudio              = "audio"
	NameMath               = "math"
	NameDRM                = "drm"
	NameTiming             = "timing"
	NameHardware           = "hardware"
)

// Names lists every signal in bag order.
var Names = []string{
	NameGraphicsBasics,
	NameGraphicsExtensions,
	NameComputeAdapter,
	NameAudio,
	NameMath,
	NameDRM,
	NameTiming,
	NameHardware,
}

// ErrUnavailable is returned by a source whose capability is missing or gated.
var ErrUnavailable = errors.New("signal unavailable")

// Source measures one host characteristic. Measure may block; callers bound it
// with a timeout and treat any error as an unknown value.
type Source[T any] interface {
	Name() string
	Measure(ctx context.Context) (T, error)
}

// GraphicsBasics are the identity strings exposed by the graphics context.
type GraphicsBasics struct {
	Vendor                 string `json:"vendor"`
	Renderer               string `json:"renderer"`
	UnmaskedVendor         string `json:"unmaskedVendor,omitempty"`
	UnmaskedRenderer       string `json:"unmaskedRenderer,omitempty"`
	Version                string `json:"version,omitempty"`
	ShadingLanguageVersion string `json:"shadingLanguageVersion,omitempty"`
}

// GraphicsExtensions lists supported graphics extensions.
type GraphicsExtensions struct {
	Extensions []string `json:"extensions"`
}

// ComputeAdapter describes the compute/GPU adapter.
type ComputeAdapter struct {
	Vendor       string   `json:"vendor"`
	Architecture string   `json:"architecture"`
	Device       string   `json:"device,omitempty"`
	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features,omitempty"`
	Fallback     bool     `json:"fallback"`
}

// MathFingerprint holds results of floating point functions on fixed inputs.
// Exact is set when the engine documents bit-exact results across runs.
type MathFingerprint struct {
	Values map[string]float64 `json:"values"`
	Exact  bool               `json:"exact"`
}

// DRMCapability maps key system identifiers to their availability.
type DRMCapability struct {
	KeySystems map[string]bool `json:"keySystems"`
}

// TimingPrecision is the smallest observable clock step.
type TimingPrecision struct {
	ResolutionNs float64 `json:"resolutionNs"`
	Samples      int     `json:"samples"`
}

// HardwareHints are coarse hardware properties.
type HardwareHints struct {
	Concurrency int     `json:"concurrency"`
	MemoryGB    float64 `json:"memoryGB"`
	Platform    string  `json:"platform"`
}

// Bag is the full result of one collection round. Every field is always
// present; unknown signals are absent Optionals. A Bag must not be modified
// once returned by the collector.
type Bag struct {
	GraphicsBasics     Optional[GraphicsBasics]     `json:"graphicsBasics"`
	GraphicsExtensions Optional[GraphicsExtensions] `json:"graphicsExtensions"`
	ComputeAdapter     Optional[ComputeAdapter]     `json:"computeAdapter"`
	Audio              Lazy[float64]                `json:"audio"`
	Math               Optional[MathFingerprint]    `json:"math"`
	DRM                Optional[DRMCapability]      `json:"drm"`
	Timing             Optional[TimingPrecision]    `json:"timing"`
	Hardware           Optional[HardwareHints]      `json:"hardware"`
}

// Known returns the names of signals that currently hold a value. A pending
// deferred audio value is not counted.
func (b *Bag) Known() []string {
	present := map[string]bool{
		NameGraphicsBasics:     b.GraphicsBasics.Present(),
		NameGraphicsExtensions: b.GraphicsExtensions.Present(),
		NameComputeAdapter:     b.ComputeAdapter.Present(),
		NameAudio:              b.Audio.Peek().Present(),
		NameMath:               b.Math.Present(),
		NameDRM:                b.DRM.Present(),
		NameTiming:             b.Timing.Present(),
		NameHardware:           b.Hardware.Present(),
	}
	var known []string
	for _, name := range Names {
		if present[name] {
			known = append(known, name)
		}
	}
	return known
}
