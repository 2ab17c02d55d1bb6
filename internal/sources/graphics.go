package sources

import (
	"context"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// GraphicsBasics reports the graphics vendor and renderer strings.
type GraphicsBasics struct {
	Host host.Provider
}

var _ signals.Source[signals.GraphicsBasics] = (*GraphicsBasics)(nil)

func (s *GraphicsBasics) Name() string { return signals.NameGraphicsBasics }

func (s *GraphicsBasics) Measure(ctx context.Context) (signals.GraphicsBasics, error) {
	info, err := s.Host.Graphics(ctx)
	if err != nil {
		return signals.GraphicsBasics{}, unavailable(s.Name(), err)
	}
	return signals.GraphicsBasics{
		Vendor:                 info.Vendor,
		Renderer:               info.Renderer,
		UnmaskedVendor:         info.UnmaskedVendor,
		UnmaskedRenderer:       info.UnmaskedRenderer,
		Version:                info.Version,
		ShadingLanguageVersion: info.ShadingLanguageVersion,
	}, nil
}

// GraphicsExtensions reports the supported graphics extension names.
type GraphicsExtensions struct {
	Host host.Provider
}

var _ signals.Source[signals.GraphicsExtensions] = (*GraphicsExtensions)(nil)

func (s *GraphicsExtensions) Name() string { return signals.NameGraphicsExtensions }

func (s *GraphicsExtensions) Measure(ctx context.Context) (signals.GraphicsExtensions, error) {
	exts, err := s.Host.GraphicsExtensions(ctx)
	if err != nil {
		return signals.GraphicsExtensions{}, unavailable(s.Name(), err)
	}
	return signals.GraphicsExtensions{Extensions: exts}, nil
}
