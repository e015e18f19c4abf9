package daemon

import (
	"sync"

	"github.com/jmylchreest/toastack/internal/dbus"
	"github.com/jmylchreest/toastack/internal/model"
)

// Registration is the outcome of registering a notification.
type Registration struct {
	Key string
	// Replaced is the D-Bus id a stack-tag replacement took over, or 0.
	Replaced uint32
}

type entry struct {
	key string
	id  uint32
	tag string
}

// Registry maps D-Bus notification ids and stack tags onto toast keys.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	byKey map[string]*entry
	byID  map[uint32]string
	byTag map[string]string

	newKey func() (string, error)
}

// NewRegistry creates an empty Registry that keys toasts with ULIDs.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*entry),
		byID:   make(map[uint32]string),
		byTag:  make(map[string]string),
		newKey: model.NewID,
	}
}

// Register returns the toast key for a notification delivered under id.
// A known id keeps its key, so replaces_id updates the toast in place.
// A known stack tag hands its key to the new id.
func (r *Registry) Register(n *dbus.Notification, id uint32) (Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.byID[id]; ok {
		return Registration{Key: key}, nil
	}

	tag := n.StackTag()
	if key, ok := r.byTag[tag]; ok && tag != "" {
		e := r.byKey[key]
		old := e.id
		delete(r.byID, old)
		e.id = id
		r.byID[id] = key
		return Registration{Key: key, Replaced: old}, nil
	}

	key, err := r.newKey()
	if err != nil {
		return Registration{}, err
	}
	r.byKey[key] = &entry{key: key, id: id, tag: tag}
	r.byID[id] = key
	if tag != "" {
		r.byTag[tag] = key
	}
	return Registration{Key: key}, nil
}

// Key returns the toast key for a D-Bus id.
func (r *Registry) Key(id uint32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byID[id]
	return key, ok
}

// ID returns the D-Bus id for a toast key.
func (r *Registry) ID(key string) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byKey[key]
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Remove forgets key and returns the D-Bus id it was delivered under.
func (r *Registry) Remove(key string) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[key]
	if !ok {
		return 0, false
	}
	delete(r.byKey, key)
	delete(r.byID, e.id)
	if e.tag != "" && r.byTag[e.tag] == key {
		delete(r.byTag, e.tag)
	}
	return e.id, true
}

// Len returns the number of registered toasts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
