package sources

import (
	"context"
	"math"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// Only the tail of the render is summed; the compressor has settled by then.
const (
	audioWindowStart = 4500
	audioWindowEnd   = 5000
)

// Audio sums the absolute sample values of an offline oscillator render.
type Audio struct {
	Host host.Provider
}

var _ signals.Source[float64] = (*Audio)(nil)

func (s *Audio) Name() string { return signals.NameAudio }

func (s *Audio) Measure(ctx context.Context) (float64, error) {
	if !s.Host.Allowed(host.FeatureAudio) {
		return 0, signals.ErrUnavailable
	}
	samples, err := s.Host.RenderAudio(ctx)
	if err != nil {
		return 0, unavailable(s.Name(), err)
	}
	if len(samples) < audioWindowEnd {
		return 0, signals.ErrUnavailable
	}

	var sum float64
	for _, v := range samples[audioWindowStart:audioWindowEnd] {
		sum += math.Abs(float64(v))
	}
	return sum, nil
}
