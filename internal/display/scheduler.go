package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/toastack/internal/lifecycle"
)

// NewScheduler returns a scheduler whose callbacks run on the GTK main loop.
func NewScheduler() lifecycle.Scheduler {
	return lifecycle.SchedulerFunc(func(d time.Duration, f func()) lifecycle.Cancel {
		done := false
		handle := glib.TimeoutAdd(uint(max(0, d.Milliseconds())), func() bool {
			done = true
			f()
			return false
		})
		return func() {
			if done {
				return
			}
			done = true
			glib.SourceRemove(handle)
		}
	})
}
