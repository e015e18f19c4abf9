package daemon

import (
	"strconv"
	"testing"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastack/internal/dbus"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	n := 0
	r.newKey = func() (string, error) {
		n++
		return "k" + strconv.Itoa(n), nil
	}
	return r
}

func tagged(tag string) *dbus.Notification {
	return &dbus.Notification{Hints: map[string]godbus.Variant{"x-dunst-stack-tag": godbus.MakeVariant(tag)}}
}

func TestRegistry_NewAndReplace(t *testing.T) {
	r := newTestRegistry()

	reg, err := r.Register(&dbus.Notification{}, 1)
	require.NoError(t, err)
	assert.Equal(t, Registration{Key: "k1"}, reg)

	reg, err = r.Register(&dbus.Notification{}, 1)
	require.NoError(t, err)
	assert.Equal(t, "k1", reg.Key, "same id keeps its key")

	reg, err = r.Register(&dbus.Notification{}, 2)
	require.NoError(t, err)
	assert.Equal(t, "k2", reg.Key)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_StackTag(t *testing.T) {
	r := newTestRegistry()

	first, err := r.Register(tagged("volume"), 1)
	require.NoError(t, err)

	second, err := r.Register(tagged("volume"), 2)
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, uint32(1), second.Replaced)

	_, ok := r.Key(1)
	assert.False(t, ok, "old id released")
	id, ok := r.ID(first.Key)
	require.True(t, ok)
	assert.Equal(t, uint32(2), id)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry()
	reg, err := r.Register(tagged("brightness"), 7)
	require.NoError(t, err)

	id, ok := r.Remove(reg.Key)
	require.True(t, ok)
	assert.Equal(t, uint32(7), id)

	_, ok = r.Remove(reg.Key)
	assert.False(t, ok)

	next, err := r.Register(tagged("brightness"), 8)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Key, next.Key, "tag freed with its toast")
	assert.Zero(t, next.Replaced)
}
