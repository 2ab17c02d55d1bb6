// Package sources implements the signal sources on top of a host.Provider.
// Sources check their capability gate before probing and report
// signals.ErrUnavailable instead of attempting a call that is bound to fail.
package sources

import (
	"errors"
	"fmt"

	"anchorprint/internal/host"
	"anchorprint/internal/signals"
)

// unavailable maps host.ErrUnsupported onto signals.ErrUnavailable and wraps
// anything else with the source name.
func unavailable(name string, err error) error {
	if errors.Is(err, host.ErrUnsupported) {
		return fmt.Errorf("%s: %w", name, signals.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", name, err)
}
