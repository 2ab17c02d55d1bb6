package host

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ClockResolution reports the kernel's resolution of the monotonic clock
// that backs Now.
func (s *System) ClockResolution() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, fmt.Errorf("clock resolution: %w", ErrUnsupported)
	}
	res := time.Duration(ts.Nano())
	if res <= 0 {
		return 0, ErrUnsupported
	}
	return res, nil
}
