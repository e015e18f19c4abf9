package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastack/internal/lifecycle"
)

// timerMsg carries a fired timer back onto the tea event loop.
type timerMsg struct {
	t *timer
}

type timer struct {
	f       func()
	stopped bool
	tm      *time.Timer
}

// teaScheduler runs lifecycle timers on the bubbletea event loop.
// Timers fire on their own goroutine and only post a timerMsg; the
// callback itself runs inside Update.
type teaScheduler struct {
	ch       chan tea.Msg
	done     chan struct{}
	stopOnce sync.Once
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{
		ch:   make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

// AfterFunc implements lifecycle.Scheduler.
func (s *teaScheduler) AfterFunc(d time.Duration, f func()) lifecycle.Cancel {
	t := &timer{f: f}
	t.tm = time.AfterFunc(d, func() {
		select {
		case s.ch <- timerMsg{t: t}:
		case <-s.done:
		}
	})
	return func() {
		t.stopped = true
		t.tm.Stop()
	}
}

// wait blocks until a timer fires. It is used as a tea.Cmd.
func (s *teaScheduler) wait() tea.Msg {
	select {
	case msg := <-s.ch:
		return msg
	case <-s.done:
		return nil
	}
}

func (s *teaScheduler) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// fire runs the callback unless it was canceled after the message was sent.
func (m timerMsg) fire() {
	if m.t == nil || m.t.stopped {
		return
	}
	m.t.stopped = true
	m.t.f()
}
