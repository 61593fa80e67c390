package notes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(store.NewMemory(store.SyncedOptions{}).Bucket(store.Local), nil)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestAddValidates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Add(ctx, Input{Title: " ", Content: ""})
	assert.ErrorIs(t, err, ErrEmptyNote)

	_, err = s.Add(ctx, Input{Title: "x", Color: "orange"})
	assert.ErrorIs(t, err, ErrInvalidColor)

	n, err := s.Add(ctx, Input{Title: "Groceries", Content: "<p>milk</p>"})
	require.NoError(t, err)
	assert.Equal(t, "yellow", n.Color)
	assert.NotEmpty(t, n.ID)
}

func TestListOrdersPinnedThenRecent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a, err := s.Add(ctx, Input{Title: "a"})
	require.NoError(t, err)
	b, err := s.Add(ctx, Input{Title: "b"})
	require.NoError(t, err)
	c, err := s.Add(ctx, Input{Title: "c"})
	require.NoError(t, err)

	_, err = s.TogglePin(ctx, a.ID)
	require.NoError(t, err)
	title := "b2"
	_, err = s.Update(ctx, b.ID, Patch{Title: &title})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids)

	unpinned, err := s.TogglePin(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	n, err := s.Add(ctx, Input{Title: "t", Content: "body"})
	require.NoError(t, err)

	empty := ""
	_, err = s.Update(ctx, n.ID, Patch{Title: &empty, Content: &empty})
	assert.ErrorIs(t, err, ErrEmptyNote)

	blue := "Blue"
	updated, err := s.Update(ctx, n.ID, Patch{Color: &blue})
	require.NoError(t, err)
	assert.Equal(t, "blue", updated.Color)
	assert.True(t, updated.UpdatedAt.After(n.UpdatedAt))

	require.NoError(t, s.Delete(ctx, n.ID))
	assert.ErrorIs(t, s.Delete(ctx, n.ID), ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
