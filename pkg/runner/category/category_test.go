package category

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/store"
	"tableflip.dev/quickmsg/pkg/templates"
)

func newCategory(t *testing.T) *Category {
	t.Helper()
	cfg := &config.Config{
		DocumentPartition: store.Local,
		Scheduler:         config.SchedulerConfig{Mode: config.SchedulerEmbedded, SweepInterval: time.Minute, RequestTimeout: time.Second},
		Notify:            config.NotifyConfig{Kind: config.NotifyLog},
	}
	a, err := app.New(context.Background(), cfg, store.NewMemory(store.SyncedOptions{}), nil, app.Options{})
	require.NoError(t, err)
	return &Category{App: a, Output: printers.Output{JSON: true, Out: &bytes.Buffer{}}}
}

func TestResolveByIDOrName(t *testing.T) {
	c := newCategory(t)
	ctx := context.Background()

	byID, err := Resolve(ctx, c.App, "cat_general")
	require.NoError(t, err)
	byName, err := Resolve(ctx, c.App, "  general ")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byName.ID)

	_, err = Resolve(ctx, c.App, "nope")
	assert.ErrorIs(t, err, templates.ErrCategoryNotFound)
}

func TestAddRejectsTakenShortcut(t *testing.T) {
	c := newCategory(t)
	ctx := context.Background()

	err := c.Add(ctx, "Escalations", "ctrl+shift+1")
	assert.ErrorIs(t, err, templates.ErrShortcutConflict)

	require.NoError(t, c.Add(ctx, "Escalations", "ctrl+shift+9"))
	cat, err := Resolve(ctx, c.App, "escalations")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+9", cat.Shortcut)
}
