package load

import (
	"time"

	"bookslicer/core"
)

// minProgressInterval caps the callback cadence so a fast load does not
// flood the caller's progress indicator.
const minProgressInterval = 100 * time.Millisecond

// throttle rate-limits progress callbacks. flush bypasses the limit for
// the mandatory end-of-batch and end-of-phase events.
type throttle struct {
	fn   core.ProgressFunc
	last time.Time
}

func newThrottle(fn core.ProgressFunc) *throttle {
	return &throttle{fn: fn}
}

func (t *throttle) emit(p core.Progress) {
	if t.fn == nil || time.Since(t.last) < minProgressInterval {
		return
	}
	t.last = time.Now()
	t.fn(p)
}

func (t *throttle) flush(p core.Progress) {
	if t.fn == nil {
		return
	}
	t.last = time.Now()
	t.fn(p)
}
