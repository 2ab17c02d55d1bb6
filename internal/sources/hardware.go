package sources

import (
	"context"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

const bytesPerGB = 1 << 30

// Hardware reports core count, memory size and platform.
type Hardware struct {
	Host host.Provider
}

var _ signals.Source[signals.HardwareHints] = (*Hardware)(nil)

func (s *Hardware) Name() string { return signals.NameHardware }

func (s *Hardware) Measure(ctx context.Context) (signals.HardwareHints, error) {
	hw, err := s.Host.Hardware()
	if err != nil {
		return signals.HardwareHints{}, unavailable(s.Name(), err)
	}
	return signals.HardwareHints{
		Concurrency: hw.Concurrency,
		MemoryGB:    float64(hw.MemoryBytes) / bytesPerGB,
		Platform:    hw.Platform,
	}, nil
}
