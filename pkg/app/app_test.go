package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/scheduler"
	"tableflip.dev/quickmsg/pkg/settings"
	"tableflip.dev/quickmsg/pkg/store"
	"tableflip.dev/quickmsg/pkg/templates"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) Notify(_ context.Context, rem reminder.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, rem.ID)
	return nil
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		DocumentPartition: store.Local,
		Scheduler: config.SchedulerConfig{
			Mode:           config.SchedulerEmbedded,
			SweepInterval:  time.Second,
			RequestTimeout: time.Second,
		},
		Notify: config.NotifyConfig{Kind: config.NotifyLog},
	}
}

func newTestApp(t *testing.T) (*App, *clock, *recorder) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	a, err := New(context.Background(), testConfig(), store.NewMemory(store.SyncedOptions{}), nil, Options{
		Now:      clk.Now,
		Notifier: rec,
	})
	require.NoError(t, err)
	return a, clk, rec
}

func TestNewRequiresConfigAndPersistence(t *testing.T) {
	_, err := New(context.Background(), nil, store.NewMemory(store.SyncedOptions{}), nil, Options{})
	assert.Error(t, err)
	_, err = New(context.Background(), testConfig(), nil, nil, Options{})
	assert.Error(t, err)
}

func TestEmbeddedReminderLifecycle(t *testing.T) {
	ctx := context.Background()
	a, clk, rec := newTestApp(t)

	id, err := a.Reminders.Save(ctx, reminder.Reminder{
		Title:    "Stand-up",
		DateTime: clk.Now().Add(15 * time.Minute),
	})
	require.NoError(t, err)

	alarms, err := a.Scheduler.Alarms(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, id, alarms[0].ReminderID)

	clk.Add(16 * time.Minute)
	assert.Equal(t, []string{id}, a.Scheduler.FireDue(ctx))
	assert.Equal(t, []string{id}, rec.ids())

	got, err := a.Reminders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, reminder.Fired, got.State())

	res, err := a.Relay.Do(ctx, id, scheduler.ActionDismiss)
	require.NoError(t, err)
	assert.Equal(t, reminder.Acknowledged, res.Reminder.State())

	alarms, err = a.Scheduler.Alarms(ctx)
	require.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestRelaySnoozeUsesSettings(t *testing.T) {
	ctx := context.Background()
	a, clk, _ := newTestApp(t)

	_, err := a.Settings.Update(ctx, func(s *settings.Settings) {
		s.Reminders.SnoozeMinutes = 25
	})
	require.NoError(t, err)

	id, err := a.Reminders.Save(ctx, reminder.Reminder{Title: "Call back", DateTime: clk.Now().Add(time.Minute)})
	require.NoError(t, err)
	clk.Add(2 * time.Minute)
	a.Scheduler.FireDue(ctx)

	res, err := a.Relay.Do(ctx, id, scheduler.ActionSnooze)
	require.NoError(t, err)
	assert.Equal(t, reminder.Active, res.Reminder.State())
	assert.Equal(t, clk.Now().Add(25*time.Minute), res.Reminder.DateTime)
}

func TestRemoveMessageForgetsUsage(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	cats, err := a.Templates.Categories(ctx)
	require.NoError(t, err)
	first, err := a.Templates.AddMessage(ctx, templates.MessageInput{Title: "Hi", Message: "Hello there", CategoryID: cats[0].ID})
	require.NoError(t, err)
	second, err := a.Templates.AddMessage(ctx, templates.MessageInput{Title: "Bye", Message: "See you", CategoryID: cats[0].ID})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = a.UseMessage(ctx, second.ID)
		require.NoError(t, err)
	}
	_, err = a.UseMessage(ctx, first.ID)
	require.NoError(t, err)

	top, err := a.FrequentMessages(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, second.ID, top[0].ID)

	require.NoError(t, a.RemoveMessage(ctx, second.ID))
	stats, err := a.Usage.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, first.ID, stats[0].MessageID)

	_, err = a.UseMessage(ctx, second.ID)
	assert.True(t, errors.Is(err, templates.ErrMessageNotFound))
}

func TestResetDropsUsage(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	cats, err := a.Templates.Categories(ctx)
	require.NoError(t, err)
	m, err := a.Templates.AddMessage(ctx, templates.MessageInput{Title: "Hi", Message: "Hello", CategoryID: cats[0].ID})
	require.NoError(t, err)
	_, err = a.UseMessage(ctx, m.ID)
	require.NoError(t, err)

	doc, err := a.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, templates.DefaultDocument().Categories, doc.Categories)

	stats, err := a.Usage.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestLateNotifierReceivesFires(t *testing.T) {
	ctx := context.Background()
	a, clk, rec := newTestApp(t)
	late := &recorder{}
	a.AddNotifier(late)

	id, err := a.Reminders.Save(ctx, reminder.Reminder{Title: "Water plants", DateTime: clk.Now().Add(time.Hour)})
	require.NoError(t, err)
	clk.Add(2 * time.Hour)
	a.Scheduler.FireDue(ctx)

	assert.Equal(t, []string{id}, rec.ids())
	assert.Equal(t, []string{id}, late.ids())
}
