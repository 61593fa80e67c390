package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/store"
	"tableflip.dev/quickmsg/pkg/templates"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{
		DocumentPartition: store.Local,
		Scheduler:         config.SchedulerConfig{Mode: config.SchedulerEmbedded, SweepInterval: time.Minute, RequestTimeout: time.Second},
		Notify:            config.NotifyConfig{Kind: config.NotifyLog},
	}
	a, err := app.New(context.Background(), cfg, store.NewMemory(store.SyncedOptions{}), nil, app.Options{})
	require.NoError(t, err)
	return NewService(a)
}

func TestServiceRequiresApp(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.ListCategories(context.Background())
	assert.ErrorIs(t, err, errNoApp)
}

func TestListCategoriesCountsMessages(t *testing.T) {
	svc := newTestService(t)
	doc := templates.DefaultDocument()

	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(doc.Categories))
	total := 0
	for _, c := range cats {
		total += c.MessageCount
	}
	assert.Equal(t, len(doc.Messages), total)
}

func TestMoveMessage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cat, err := svc.AddCategory(ctx, "Support", "")
	require.NoError(t, err)
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		m, err := svc.AddMessage(ctx, templates.MessageInput{Title: title, Message: title, CategoryID: cat.ID})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	_, err = svc.MoveMessage(ctx, MoveOptions{ID: ids[2], TargetID: ids[0], Position: "before"})
	require.NoError(t, err)
	assertOrder(t, svc, cat.ID, ids[2], ids[0], ids[1])

	_, err = svc.MoveMessage(ctx, MoveOptions{ID: ids[2], Index: -1})
	require.NoError(t, err)
	assertOrder(t, svc, cat.ID, ids[0], ids[1], ids[2])

	_, err = svc.MoveMessage(ctx, MoveOptions{ID: ids[2], Index: 1})
	require.NoError(t, err)
	assertOrder(t, svc, cat.ID, ids[0], ids[2], ids[1])

	_, err = svc.MoveMessage(ctx, MoveOptions{ID: ids[0], TargetID: ids[1], Position: "sideways"})
	assert.Error(t, err)
}

func assertOrder(t *testing.T, svc *Service, categoryID string, want ...string) {
	t.Helper()
	msgs, err := svc.ListMessages(context.Background(), categoryID)
	require.NoError(t, err)
	got := make([]string, 0, len(msgs))
	for _, m := range msgs {
		got = append(got, m.ID)
	}
	assert.Equal(t, want, got)
}

func TestSaveAndFilterReminders(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.SaveReminder(ctx, ReminderInput{Title: "Past", DateTime: "2001-01-01T00:00:00Z"})
	assert.ErrorIs(t, err, reminder.ErrPastDateTime)

	_, err = svc.SaveReminder(ctx, ReminderInput{Title: "Bad", DateTime: "tomorrow"})
	assert.Error(t, err)

	due := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	r, err := svc.SaveReminder(ctx, ReminderInput{
		Title:      "Send invoice",
		DateTime:   due.Format(time.RFC3339),
		Recurrence: "monthly",
		Priority:   "high",
	})
	require.NoError(t, err)
	assert.True(t, due.Equal(r.DateTime))
	assert.Equal(t, reminder.RecurMonthly, r.Recurrence)

	active, err := svc.ListReminders(ctx, "active")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	fired, err := svc.ListReminders(ctx, "fired")
	require.NoError(t, err)
	assert.Empty(t, fired)

	snoozed, err := svc.SnoozeReminder(ctx, r.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, snoozed.SnoozeCount)

	require.NoError(t, svc.DeleteReminder(ctx, r.ID))
	all, err := svc.ListReminders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
