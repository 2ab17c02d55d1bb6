// Package anchor derives the stable anchor payload from a signal bag.
//
// Only signals that survive reloads and private browsing on the same device
// are selected. Strings are normalized, noisy numbers are rounded to a fixed
// number of significant digits and unbounded lists are reduced to a summary.
// Building is pure apart from resolving the deferred audio value.
package anchor

import (
	"context"
	"math"
	"sort"
	"strings"

	"anchorprint/internal/hasher"
	"anchorprint/internal/signals"
)

// Policy is the precision policy for numeric signals whose source does not
// guarantee bit-exact results. Digits are significant decimal digits.
type Policy struct {
	MathDigits  int
	AudioDigits int
}

// DefaultPolicy keeps 12 significant digits of math results and 9 of the
// audio sum.
var DefaultPolicy = Policy{MathDigits: 12, AudioDigits: 9}

const minMemoryClass = 0.25

// ExtensionSummary stands in for the full extension list.
type ExtensionSummary struct {
	Count  int    `json:"count"`
	Digest string `json:"digest"`
}

// Adapter is the normalized compute adapter identity.
type Adapter struct {
	Vendor       signals.Optional[string] `json:"vendor,omitzero"`
	Architecture signals.Optional[string] `json:"architecture,omitzero"`
}

// Payload is the anchor. Its key set is fixed; absent fields are omitted
// from the canonical form.
type Payload struct {
	GPUVendor     signals.Optional[string]             `json:"gpuVendor,omitzero"`
	GPURenderer   signals.Optional[string]             `json:"gpuRenderer,omitzero"`
	GPUExtensions signals.Optional[ExtensionSummary]   `json:"gpuExtensions,omitzero"`
	Adapter       signals.Optional[Adapter]            `json:"adapter,omitzero"`
	Audio         signals.Optional[float64]            `json:"audio,omitzero"`
	Math          signals.Optional[map[string]float64] `json:"math,omitzero"`
	DRM           signals.Optional[map[string]bool]    `json:"drm,omitzero"`
	TimerClass    signals.Optional[int]                `json:"timerClass,omitzero"`
	Concurrency   signals.Optional[int]                `json:"concurrency,omitzero"`
	MemoryClass   signals.Optional[float64]            `json:"memoryClass,omitzero"`
	Platform      signals.Optional[string]             `json:"platform,omitzero"`
}

// Builder builds payloads under a precision policy.
type Builder struct {
	policy Policy
}

// NewBuilder returns a builder; zero policy fields take DefaultPolicy values.
func NewBuilder(p Policy) *Builder {
	if p.MathDigits <= 0 {
		p.MathDigits = DefaultPolicy.MathDigits
	}
	if p.AudioDigits <= 0 {
		p.AudioDigits = DefaultPolicy.AudioDigits
	}
	return &Builder{policy: p}
}

// Policy returns the effective policy.
func (b *Builder) Policy() Policy {
	return b.policy
}

// Build returns the anchor for bag using DefaultPolicy.
func Build(ctx context.Context, bag *signals.Bag) Payload {
	return NewBuilder(DefaultPolicy).Build(ctx, bag)
}

// Build derives the anchor payload from bag. The deferred audio value is
// resolved with ctx; a failed resolution leaves audio absent.
func (b *Builder) Build(ctx context.Context, bag *signals.Bag) Payload {
	var p Payload
	if bag == nil {
		return p
	}

	if gb, ok := bag.GraphicsBasics.Get(); ok {
		p.GPUVendor = firstPresent(NormalizeString(gb.UnmaskedVendor), NormalizeString(gb.Vendor))
		p.GPURenderer = firstPresent(NormalizeRenderer(gb.UnmaskedRenderer), NormalizeRenderer(gb.Renderer))
	}
	if ext, ok := bag.GraphicsExtensions.Get(); ok {
		p.GPUExtensions = summarizeExtensions(ext.Extensions)
	}
	if ad, ok := bag.ComputeAdapter.Get(); ok {
		a := Adapter{Vendor: NormalizeString(ad.Vendor), Architecture: NormalizeString(ad.Architecture)}
		if a.Vendor.Present() || a.Architecture.Present() {
			p.Adapter = signals.Some(a)
		}
	}
	if v, ok := bag.Audio.Resolve(ctx).Get(); ok && finite(v) {
		p.Audio = signals.Some(RoundSignificant(v, b.policy.AudioDigits))
	}
	if m, ok := bag.Math.Get(); ok {
		p.Math = b.mathValues(m)
	}
	if d, ok := bag.DRM.Get(); ok {
		p.DRM = keySystems(d.KeySystems)
	}
	if tp, ok := bag.Timing.Get(); ok {
		if class, ok := log2Class(tp.ResolutionNs); ok {
			p.TimerClass = signals.Some(class)
		}
	}
	if hw, ok := bag.Hardware.Get(); ok {
		if hw.Concurrency > 0 {
			p.Concurrency = signals.Some(hw.Concurrency)
		}
		if class, ok := log2Class(hw.MemoryGB); ok {
			p.MemoryClass = signals.Some(math.Max(math.Pow(2, float64(class)), minMemoryClass))
		}
		p.Platform = NormalizeString(hw.Platform)
	}
	return p
}

func (b *Builder) mathValues(m signals.MathFingerprint) signals.Optional[map[string]float64] {
	out := make(map[string]float64, len(m.Values))
	for name, v := range m.Values {
		if !finite(v) {
			continue
		}
		if !m.Exact {
			v = RoundSignificant(v, b.policy.MathDigits)
		}
		out[name] = v
	}
	if len(out) == 0 {
		return signals.None[map[string]float64]()
	}
	return signals.Some(out)
}

func summarizeExtensions(exts []string) signals.Optional[ExtensionSummary] {
	seen := make(map[string]bool, len(exts))
	list := make([]string, 0, len(exts))
	for _, e := range exts {
		n, ok := NormalizeString(e).Get()
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		list = append(list, n)
	}
	if len(list) == 0 {
		return signals.None[ExtensionSummary]()
	}
	sort.Strings(list)
	return signals.Some(ExtensionSummary{
		Count:  len(list),
		Digest: hasher.Hash(strings.Join(list, ",")),
	})
}

func keySystems(in map[string]bool) signals.Optional[map[string]bool] {
	out := make(map[string]bool, len(in))
	for ks, ok := range in {
		if n, present := NormalizeString(ks).Get(); present {
			out[n] = out[n] || ok
		}
	}
	if len(out) == 0 {
		return signals.None[map[string]bool]()
	}
	return signals.Some(out)
}

func firstPresent[T any](opts ...signals.Optional[T]) signals.Optional[T] {
	for _, o := range opts {
		if o.Present() {
			return o
		}
	}
	return signals.None[T]()
}
