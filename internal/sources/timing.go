package sources

import (
	"context"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

const defaultTimingIterations = 5000

// Timing reports the resolution of the host clock. A declared resolution is
// used as is. Otherwise the smallest positive step between consecutive
// readings is measured; the loop runs without yielding, since yielding would
// perturb the measurement.
type Timing struct {
	Host       host.Provider
	Iterations int
}

var _ signals.Source[signals.TimingPrecision] = (*Timing)(nil)

func (s *Timing) Name() string { return signals.NameTiming }

// Measure returns Samples zero when the resolution was declared by the host.
func (s *Timing) Measure(ctx context.Context) (signals.TimingPrecision, error) {
	if res, err := s.Host.ClockResolution(); err == nil && res > 0 {
		return signals.TimingPrecision{ResolutionNs: float64(res)}, nil
	}

	n := s.Iterations
	if n <= 0 {
		n = defaultTimingIterations
	}

	var smallest int64
	prev := s.Host.Now()
	for i := 0; i < n; i++ {
		now := s.Host.Now()
		if delta := int64(now - prev); delta > 0 && (smallest == 0 || delta < smallest) {
			smallest = delta
		}
		prev = now
	}
	if smallest == 0 {
		return signals.TimingPrecision{}, signals.ErrUnavailable
	}
	return signals.TimingPrecision{ResolutionNs: float64(smallest), Samples: n}, nil
}
