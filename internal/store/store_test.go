package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmylchreest/toastack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Count())
}

func TestStore_Add(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	require.NoError(t, s.Add(testToast("a", "first"), "test"))
	require.NoError(t, s.Add(testToast("b", "second"), "test"))
	assert.Equal(t, 2, s.Count())

	// Newest first
	all := s.All()
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)

	// Same id, same content: skipped
	require.NoError(t, s.Add(testToast("a", "first"), "test"))
	assert.Equal(t, 2, s.Count())
}

func TestStore_AddNormalizes(t *testing.T) {
	s := NewStore(model.CategoryWarning)
	defer s.Close()

	require.NoError(t, s.Add(model.Toast{Title: "no id"}, "test"))
	all := s.All()
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, model.CategoryWarning, all[0].Category)
	assert.False(t, all[0].CreatedAt.IsZero())
}

func TestStore_AddUpdatesContent(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	created := time.Now().Add(-time.Minute)
	first := testToast("a", "v1")
	first.CreatedAt = created
	require.NoError(t, s.Add(first, "test"))

	ch := s.Subscribe()
	require.NoError(t, s.Add(testToast("a", "v2"), "test"))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Title)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond, "creation time kept")
	assert.Equal(t, 1, s.Count())

	select {
	case ev := <-ch:
		assert.Equal(t, ChangeTypeUpdate, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected update event")
	}
}

func TestStore_AddBatch(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	n, err := s.AddBatch([]model.Toast{
		testToast("1", "one"),
		testToast("2", "two"),
		{ID: "bad"},
		testToast("3", "three"),
	}, "batch")
	assert.ErrorIs(t, err, model.ErrEmptyContent)
	assert.Equal(t, 3, n)

	ids := []string{}
	for _, toast := range s.All() {
		ids = append(ids, toast.ID)
	}
	assert.Equal(t, []string{"3", "2", "1"}, ids)
}

func TestStore_RemoveTombstones(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	require.NoError(t, s.Add(testToast("a", "first"), "test"))

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"), "second remove is a no-op")
	assert.True(t, s.Tombstoned("a"))
	assert.Equal(t, 0, s.Count())

	// A re-read feed does not bring it back
	require.NoError(t, s.Add(testToast("a", "first"), "file"))
	assert.Equal(t, 0, s.Count())
}

func TestStore_TombstoneLimit(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()
	s.SetTombstoneLimit(2)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(testToast(id, "msg "+id), "test"))
		require.True(t, s.Remove(id))
	}

	assert.False(t, s.Tombstoned("a"), "oldest tombstone evicted")
	assert.True(t, s.Tombstoned("b"))
	assert.True(t, s.Tombstoned("c"))

	require.NoError(t, s.Add(testToast("a", "msg a"), "file"))
	assert.Equal(t, 1, s.Count())

	s.SetTombstoneLimit(1)
	assert.False(t, s.Tombstoned("b"))
	assert.True(t, s.Tombstoned("c"))
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	ch := s.Subscribe()
	require.NoError(t, s.Add(testToast("a", "first"), "dbus"))

	select {
	case ev := <-ch:
		assert.Equal(t, ChangeTypeAdd, ev.Type)
		assert.Equal(t, 1, ev.Count)
		assert.Equal(t, "dbus", ev.Source)
	case <-time.After(time.Second):
		t.Fatal("expected change event")
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	ch := s.Subscribe()
	s.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	defer s.Close()

	require.NoError(t, s.Add(testToast("a", "first"), "test"))
	require.NoError(t, s.Add(testToast("b", "second"), "test"))

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Count())
	assert.True(t, s.Tombstoned("b"))
}

func TestStore_Close(t *testing.T) {
	s := NewStore(model.CategoryInfo)
	ch := s.Subscribe()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-ch
	assert.False(t, ok)

	assert.ErrorIs(t, s.Add(testToast("a", "late"), "test"), ErrStoreClosed)
	assert.ErrorIs(t, s.Clear(), ErrStoreClosed)
	assert.False(t, s.Remove("a"))
}

func TestFileWatcher_LoadsOnStartAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0644))

	s := NewStore(model.CategoryInfo)
	defer s.Close()

	load := func(ctx context.Context) ([]model.Toast, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []model.Toast{{Title: string(data)}}, nil
	}

	fw, err := NewFileWatcher(s, path, load, nil)
	require.NoError(t, err)

	ch := s.Subscribe()
	require.NoError(t, fw.Start(context.Background()))
	defer fw.Stop()

	require.Equal(t, 1, s.Count(), "initial load is synchronous")
	first := s.All()[0]
	assert.Contains(t, first.ID, "feed-")
	<-ch

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))

	select {
	case ev := <-ch:
		assert.Equal(t, ChangeTypeAdd, ev.Type)
		assert.Equal(t, "file", ev.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("expected reload after write")
	}
	assert.Equal(t, 2, s.Count())
}

func testToast(id, title string) model.Toast {
	return model.Toast{
		ID:       id,
		Title:    title,
		Message:  "message for " + title,
		Category: model.CategoryInfo,
	}
}
