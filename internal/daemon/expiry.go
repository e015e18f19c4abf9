package daemon

import (
	"time"

	"github.com/jmylchreest/toastack/internal/lifecycle"
)

// Expiry runs one expiration timer per toast key. Setting a key again
// restarts its timer. It is not safe for concurrent use; the daemon drives
// it from the GTK main loop.
type Expiry struct {
	sched   lifecycle.Scheduler
	expire  func(key string)
	pending map[string]lifecycle.Cancel
}

// NewExpiry creates timers on sched that call expire when they fire.
func NewExpiry(sched lifecycle.Scheduler, expire func(key string)) *Expiry {
	return &Expiry{sched: sched, expire: expire, pending: make(map[string]lifecycle.Cancel)}
}

// Set (re)starts the timer for key. A zero or negative d only clears it.
func (e *Expiry) Set(key string, d time.Duration) {
	e.Cancel(key)
	if d <= 0 {
		return
	}
	e.pending[key] = e.sched.AfterFunc(d, func() {
		delete(e.pending, key)
		e.expire(key)
	})
}

// Cancel stops the timer for key.
func (e *Expiry) Cancel(key string) {
	if cancel, ok := e.pending[key]; ok {
		cancel()
		delete(e.pending, key)
	}
}

// Pending returns the number of running timers.
func (e *Expiry) Pending() int {
	return len(e.pending)
}
