package sources

import (
	"context"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// ComputeAdapter reports the compute adapter. Adapter negotiation is only
// attempted in a secure context with the compute feature allowed.
type ComputeAdapter struct {
	Host host.Provider
}

var _ signals.Source[signals.ComputeAdapter] = (*ComputeAdapter)(nil)

func (s *ComputeAdapter) Name() string { return signals.NameComputeAdapter }

func (s *ComputeAdapter) Measure(ctx context.Context) (signals.ComputeAdapter, error) {
	if !s.Host.SecureContext() || !s.Host.Allowed(host.FeatureCompute) {
		return signals.ComputeAdapter{}, signals.ErrUnavailable
	}
	info, err := s.Host.ComputeAdapter(ctx)
	if err != nil {
		return signals.ComputeAdapter{}, unavailable(s.Name(), err)
	}
	return signals.ComputeAdapter{
		Vendor:       info.Vendor,
		Architecture: info.Architecture,
		Device:       info.Device,
		Description:  info.Description,
		Features:     info.Features,
		Fallback:     info.Fallback,
	}, nil
}
