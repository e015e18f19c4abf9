package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastack/internal/lifecycle"
)

func TestExpiry(t *testing.T) {
	sched := lifecycle.NewManualScheduler()
	var expired []string
	e := NewExpiry(sched, func(key string) { expired = append(expired, key) })

	e.Set("a", time.Second)
	e.Set("b", 2*time.Second)
	e.Set("never", 0)
	assert.Equal(t, 2, e.Pending())

	// Restarting a timer pushes it back.
	sched.Advance(500 * time.Millisecond)
	e.Set("a", time.Second)

	sched.Advance(600 * time.Millisecond)
	assert.Empty(t, expired)

	sched.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, expired)
	assert.Zero(t, e.Pending())

	e.Set("c", time.Second)
	e.Cancel("c")
	sched.Flush()
	assert.Equal(t, []string{"a", "b"}, expired)
}
