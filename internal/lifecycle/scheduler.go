package lifecycle

import "time"

// Cancel stops a scheduled callback. Calling it after the callback ran,
// or more than once, is harmless.
type Cancel func()

// Scheduler runs deferred callbacks on the caller's event loop.
// Implementations must never run f concurrently with other controller
// calls; surfaces post f back to their own loop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, f func()) Cancel

// AfterFunc calls s(d, f).
func (s SchedulerFunc) AfterFunc(d time.Duration, f func()) Cancel {
	return s(d, f)
}

// ManualScheduler collects callbacks until Advance is called. It drives
// transitions deterministically in tests and headless tools.
type ManualScheduler struct {
	now     time.Duration
	nextID  int
	pending []*manualTask
}

type manualTask struct {
	id       int
	at       time.Duration
	f        func()
	canceled bool
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc queues f to run once the clock passes d from now.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Cancel {
	s.nextID++
	task := &manualTask{id: s.nextID, at: s.now + d, f: f}
	s.pending = append(s.pending, task)
	return func() { task.canceled = true }
}

// Pending returns the number of queued, uncanceled callbacks.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.canceled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and runs every callback that is
// due, in order of due time then scheduling order. Callbacks scheduled by
// a running callback are eligible in the same call.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.now += d
	ran := 0
	for {
		next := -1
		for i, t := range s.pending {
			if t.canceled || t.at > s.now {
				continue
			}
			if next == -1 || t.at < s.pending[next].at ||
				(t.at == s.pending[next].at && t.id < s.pending[next].id) {
				next = i
			}
		}
		if next == -1 {
			break
		}
		task := s.pending[next]
		s.pending = append(s.pending[:next], s.pending[next+1:]...)
		task.f()
		ran++
	}
	s.compact()
	return ran
}

// Flush runs every pending callback regardless of due time.
func (s *ManualScheduler) Flush() int {
	latest := s.now
	for _, t := range s.pending {
		latest = max(latest, t.at)
	}
	return s.Advance(latest - s.now)
}

func (s *ManualScheduler) compact() {
	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.canceled {
			live = append(live, t)
		}
	}
	s.pending = live
}
