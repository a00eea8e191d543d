package reconciler

import (
	"sync"
	"time"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
)

// DefaultThrottleWindow is the minimum interval between order book renders.
const DefaultThrottleWindow = 500 * time.Millisecond

// Timer is the cancellable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real implementation wraps time.AfterFunc;
// tests substitute a manual clock to make the window deterministic.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Throttle coalesces depth deltas to at most one flush per window. The first
// offer opens a window and schedules a flush for its end; offers inside the
// window overwrite the buffered delta, so only the latest one is rendered.
type Throttle struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	flush   func(types.DepthDeltaEvent)
	pending *types.DepthDeltaEvent
	timer   Timer
	stopped bool
}

// NewThrottle creates a throttle flushing through fn on the real clock.
func NewThrottle(window time.Duration, fn func(types.DepthDeltaEvent)) *Throttle {
	return newThrottleWithClock(systemClock{}, window, fn)
}

func newThrottleWithClock(clock Clock, window time.Duration, fn func(types.DepthDeltaEvent)) *Throttle {
	return &Throttle{
		clock:  clock,
		window: window,
		flush:  fn,
	}
}

// Offer buffers a delta for the end of the current window, opening a new
// window when none is pending.
func (t *Throttle) Offer(delta types.DepthDeltaEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	t.pending = &delta

	if t.timer == nil {
		t.timer = t.clock.AfterFunc(t.window, t.windowElapsed)
	}
}

// windowElapsed runs when the window closes: it flushes the buffered delta
// and goes idle until the next offer.
func (t *Throttle) windowElapsed() {
	t.mu.Lock()

	pending := t.pending
	t.pending = nil
	t.timer = nil

	if t.stopped || pending == nil {
		t.mu.Unlock()

		return
	}

	t.mu.Unlock()

	t.flush(*pending)
}

// Stop cancels any scheduled flush and drops the buffered delta. The
// throttle ignores offers afterwards.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.pending = nil

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
