// Package watchdog implements a coarse deadman switch: a callback fires if the
// owner stops calling Reset for longer than the timeout.
package watchdog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
)

// PollInterval is how often the monitor goroutine checks the timer. It bounds how
// late a timeout can be detected; the watchdog is a liveness heartbeat, not a
// precise deadline.
const PollInterval = time.Second

// Timer is a watchdog. The zero value is not usable; create one with New.
type Timer struct {
	timeout time.Duration

	mu        sync.Mutex
	lastReset time.Time
	armed     bool

	fired    atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option customizes a Timer at construction.
type Option func(*options)

type options struct {
	poll time.Duration
}

// WithPollInterval overrides PollInterval. Values <= 0 are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.poll = d
		}
	}
}

// New arms a watchdog and immediately starts its monitor goroutine. onTimeout is
// called at most once, from the monitor goroutine, the first time an armed timer
// has gone more than timeout without a Reset. It must not block.
func New(timeout time.Duration, onTimeout func(), opts ...Option) *Timer {
	o := options{poll: PollInterval}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Timer{
		timeout:   timeout,
		lastReset: time.Now(),
		armed:     true,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.monitor(o.poll, onTimeout)
	return t
}

// Reset re-arms the watchdog with a fresh timestamp.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.lastReset = time.Now()
	t.armed = true
	t.mu.Unlock()
}

// Cancel disarms the watchdog. The monitor keeps polling and will not fire until
// a later Reset goes stale. Unlike a monitor that exits on its first disarmed poll,
// a cancelled Timer can be re-armed, so one Timer serves a whole run.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.armed = false
	t.mu.Unlock()
}

// Armed reports whether the watchdog is currently counting.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Fired reports whether the timeout callback has run.
func (t *Timer) Fired() bool {
	return t.fired.Load()
}

// Stop ends the monitor goroutine without firing and waits for it to exit.
// It is safe to call more than once and after the watchdog has fired.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.done
}

func (t *Timer) monitor(poll time.Duration, onTimeout func()) {
	defer close(t.done)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		if !t.expired() {
			continue
		}

		t.fired.Store(true)
		logger.L().Warn("Watchdog timeout", "timeout", t.timeout.String())
		if onTimeout != nil {
			onTimeout()
		}
		return
	}
}

func (t *Timer) expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed && time.Since(t.lastReset) > t.timeout
}
