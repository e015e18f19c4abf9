// Package store provides the host-side toast store.
//
// The store is the authoritative list a host feeds into a stack. It is
// shared between the surface event loop and producers such as the feed
// watcher or the D-Bus server, so every method is safe for concurrent use.
package store

import (
	"errors"
	"slices"
	"sync"

	"github.com/jmylchreest/toastack/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates toasts were added.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeUpdate indicates toast content was replaced.
	ChangeTypeUpdate
	// ChangeTypeRemove indicates a toast was removed.
	ChangeTypeRemove
	// ChangeTypeClear indicates all toasts were removed.
	ChangeTypeClear
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdd:
		return "add"
	case ChangeTypeUpdate:
		return "update"
	case ChangeTypeRemove:
		return "remove"
	case ChangeTypeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type   ChangeType
	Count  int
	Source string
}

// Store holds toasts newest first.
type Store struct {
	mu     sync.RWMutex
	toasts []model.Toast
	index  map[string]int // toast id -> slice index
	// tombstones hold ids removed this session so a re-read feed does not
	// bring a dismissed toast back. tombOrder evicts the oldest past
	// tombLimit.
	tombstones map[string]bool
	tombOrder  []string
	tombLimit  int

	defaultCategory model.Category
	subscribers     []chan ChangeEvent
	closed          bool
}

// NewStore creates an empty Store. Toasts without a category get def.
func NewStore(def model.Category) *Store {
	if _, ok := model.ParseCategory(string(def)); !ok {
		def = model.DefaultCategory
	}
	return &Store{
		index:           make(map[string]int),
		tombstones:      make(map[string]bool),
		tombLimit:       DefaultTombstoneLimit,
		defaultCategory: def,
	}
}

// DefaultTombstoneLimit bounds the ids a store remembers as removed.
const DefaultTombstoneLimit = 4096

// SetTombstoneLimit changes how many removed ids are remembered. The
// oldest are forgotten first; n below 1 is raised to 1.
func (s *Store) SetTombstoneLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombLimit = max(1, n)
	s.evictTombstones()
}

// Add adds a single toast to the front of the store.
// A toast whose id is already present replaces the stored content.
func (s *Store) Add(t model.Toast, source string) error {
	_, err := s.AddBatch([]model.Toast{t}, source)
	return err
}

// AddBatch adds toasts in order, so the last toast of the batch ends up
// frontmost. Tombstoned ids are skipped and invalid toasts are reported
// in the error without stopping the batch. Returns the number of toasts
// added or updated.
func (s *Store) AddBatch(ts []model.Toast, source string) (int, error) {
	if len(ts) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var (
		added, updated int
		errs           []error
	)
	for _, t := range ts {
		if err := t.Normalize(s.defaultCategory); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.tombstones[t.ID] {
			continue
		}

		if idx, exists := s.index[t.ID]; exists {
			if s.toasts[idx].SameContent(t) {
				continue
			}
			t.CreatedAt = s.toasts[idx].CreatedAt
			s.toasts[idx] = t
			updated++
			continue
		}

		s.toasts = slices.Insert(s.toasts, 0, t)
		s.reindex()
		added++
	}

	if added > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeAdd, Count: added, Source: source})
	}
	if updated > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeUpdate, Count: updated, Source: source})
	}
	return added + updated, errors.Join(errs...)
}

// All returns a copy of every toast, newest first.
func (s *Store) All() []model.Toast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.toasts)
}

// Get returns a toast by id.
func (s *Store) Get(id string) (model.Toast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, exists := s.index[id]; exists {
		return s.toasts[idx], true
	}
	return model.Toast{}, false
}

// Count returns the number of toasts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.toasts)
}

// Remove deletes a toast and tombstones its id. Removing an unknown id is
// a no-op and returns false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	idx, exists := s.index[id]
	if !exists {
		return false
	}

	s.tombstone(id)
	s.toasts = slices.Delete(s.toasts, idx, idx+1)
	s.reindex()

	s.notifyChange(ChangeEvent{Type: ChangeTypeRemove, Count: 1})
	return true
}

// Tombstoned reports whether id was removed this session.
func (s *Store) Tombstoned(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tombstones[id]
}

// Clear removes all toasts, tombstoning each id.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	count := len(s.toasts)
	for _, t := range s.toasts {
		s.tombstone(t.ID)
	}
	s.toasts = nil
	s.index = make(map[string]int)

	s.notifyChange(ChangeEvent{Type: ChangeTypeClear, Count: count})
	return nil
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels. Further mutations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	return nil
}

func (s *Store) tombstone(id string) {
	if s.tombstones[id] {
		return
	}
	s.tombstones[id] = true
	s.tombOrder = append(s.tombOrder, id)
	s.evictTombstones()
}

func (s *Store) evictTombstones() {
	n := len(s.tombOrder) - s.tombLimit
	if n <= 0 {
		return
	}
	for _, id := range s.tombOrder[:n] {
		delete(s.tombstones, id)
	}
	s.tombOrder = slices.Delete(s.tombOrder, 0, n)
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.toasts))
	for i, t := range s.toasts {
		s.index[t.ID] = i
	}
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
