//go:build !linux

package host

import "time"

func (s *System) ClockResolution() (time.Duration, error) {
	return 0, ErrUnsupported
}
