package sources

import (
	"context"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// DefaultKeySystems are the key systems queried when none are configured.
var DefaultKeySystems = []string{
	host.KeySystemClearKey,
	host.KeySystemWidevine,
	host.KeySystemPlayReady,
	host.KeySystemFairPlay,
}

// DRM reports which key systems can be used. Key system negotiation can
// hang on some hosts, so the collector runs this source under a timeout.
type DRM struct {
	Host       host.Provider
	KeySystems []string
}

var _ signals.Source[signals.DRMCapability] = (*DRM)(nil)

func (s *DRM) Name() string { return signals.NameDRM }

func (s *DRM) Measure(ctx context.Context) (signals.DRMCapability, error) {
	if !s.Host.SecureContext() || !s.Host.Allowed(host.FeatureEncryptedMedia) {
		return signals.DRMCapability{}, signals.ErrUnavailable
	}

	keySystems := s.KeySystems
	if len(keySystems) == 0 {
		keySystems = DefaultKeySystems
	}

	result := make(map[string]bool, len(keySystems))
	for _, ks := range keySystems {
		if err := ctx.Err(); err != nil {
			return signals.DRMCapability{}, err
		}
		ok, err := s.Host.RequestKeySystem(ctx, ks)
		result[ks] = err == nil && ok
	}
	return signals.DRMCapability{KeySystems: result}, nil
}
