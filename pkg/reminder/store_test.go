package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/store"
)

type call struct {
	op string
	id string
	at time.Time
}

type fakeScheduler struct {
	mu      sync.Mutex
	calls   []call
	failSet error
	failDel error
}

func (f *fakeScheduler) ScheduleAt(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "set", id: id, at: at})
	return f.failSet
}

func (f *fakeScheduler) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "clear", id: id})
	return f.failDel
}

func (f *fakeScheduler) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store  *Store
	bucket store.Bucket
	sched  *fakeScheduler
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bucket: store.NewMemory(store.SyncedOptions{}).Bucket(store.Local),
		sched:  &fakeScheduler{},
		clock:  &clock{t: date("2024-01-31T09:00")},
	}
	f.store = NewStore(f.bucket, Options{
		Scheduler: f.sched,
		Now:       f.clock.Now,
	})
	return f
}

func TestSaveRejectsInvalidInputWithoutWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := map[string]struct {
		r    Reminder
		want error
	}{
		"no title":        {Reminder{DateTime: f.clock.t.Add(time.Hour)}, ErrMissingTitle},
		"no date":         {Reminder{Title: "x"}, ErrMissingDateTime},
		"past":            {Reminder{Title: "x", DateTime: f.clock.t.Add(-time.Minute)}, ErrPastDateTime},
		"too soon":        {Reminder{Title: "x", DateTime: f.clock.t.Add(500 * time.Millisecond)}, ErrPastDateTime},
		"bad recurrence":  {Reminder{Title: "x", DateTime: f.clock.t.Add(time.Hour), Recurrence: "yearly"}, ErrInvalidRecurrence},
		"bad priority":    {Reminder{Title: "x", DateTime: f.clock.t.Add(time.Hour), Priority: "urgent"}, ErrInvalidPriority},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.Save(ctx, tc.r)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.bucket.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.sched.calls)
}

func TestSaveCreatesActiveReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	due := date("2024-01-31T10:00")

	id, err := f.store.Save(ctx, Reminder{Title: " Stand-up ", DateTime: due, IsFired: true})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	r, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Stand-up", r.Title)
	assert.Equal(t, Active, r.State())
	assert.False(t, r.IsFired)
	assert.Nil(t, r.FiredAt)
	assert.Equal(t, RecurNone, r.Recurrence)
	assert.Equal(t, PriorityMedium, r.Priority)
	assert.Equal(t, f.clock.t, r.CreatedAt)
	assert.Equal(t, call{op: "set", id: id, at: due}, f.sched.last())
}

func TestSaveEditPreservesCreatedAtAndRearms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)
	created := f.clock.t

	_, fired, err := f.store.MarkFired(ctx, id, date("2024-01-31T10:00"))
	require.NoError(t, err)
	require.True(t, fired)

	f.clock.Advance(2 * time.Hour)
	_, err = f.store.Save(ctx, Reminder{ID: id, Title: "b", DateTime: date("2024-02-01T10:00")})
	require.NoError(t, err)

	r, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "b", r.Title)
	assert.Equal(t, created, r.CreatedAt)
	assert.Equal(t, Active, r.State())
}

func TestSaveRollsBackWhenSchedulingFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.store.Save(ctx, Reminder{Title: "keep", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)

	f.sched.failSet = errors.New("offline")

	_, err = f.store.Save(ctx, Reminder{Title: "new", DateTime: date("2024-01-31T11:00")})
	assert.ErrorIs(t, err, ErrSchedulerUnavailable)

	_, err = f.store.Save(ctx, Reminder{ID: id, Title: "edited", DateTime: date("2024-01-31T12:00")})
	assert.ErrorIs(t, err, ErrSchedulerUnavailable)

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].Title)
	assert.Equal(t, date("2024-01-31T10:00"), list[0].DateTime)
}

func TestSaveWithoutSchedulerFails(t *testing.T) {
	ctx := context.Background()
	bucket := store.NewMemory(store.SyncedOptions{}).Bucket(store.Local)
	s := NewStore(bucket, Options{Now: func() time.Time { return date("2024-01-31T09:00") }})

	_, err := s.Save(ctx, Reminder{Title: "x", DateTime: date("2024-01-31T10:00")})
	assert.ErrorIs(t, err, ErrSchedulerUnavailable)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCompleteWithoutRecurrenceAcknowledges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)

	f.clock.t = date("2024-01-31T10:00")
	_, _, err = f.store.MarkFired(ctx, id, f.clock.t)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	r, err := f.store.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Acknowledged, r.State())
	require.NotNil(t, r.FiredAt)
	assert.Equal(t, f.clock.t, *r.FiredAt)
	assert.Equal(t, call{op: "clear", id: id}, f.sched.last())

	_, err = f.store.Complete(ctx, id)
	assert.ErrorIs(t, err, ErrAlreadyAcknowledged)
}

func TestCompleteDailyRecurrence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00"), Recurrence: RecurDaily, SnoozeCount: 2})
	require.NoError(t, err)

	f.clock.t = date("2024-01-31T10:00")
	_, _, err = f.store.MarkFired(ctx, id, f.clock.t)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	r, err := f.store.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, Active, r.State())
	assert.Equal(t, date("2024-02-01T10:00"), r.DateTime)
	assert.Zero(t, r.SnoozeCount)
	assert.Equal(t, call{op: "set", id: id, at: date("2024-02-01T10:00")}, f.sched.last())
}

func TestCompleteSchedulingFailureIsOnlyLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00"), Recurrence: RecurWeekly})
	require.NoError(t, err)

	f.sched.failSet = errors.New("offline")
	r, err := f.store.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, date("2024-02-07T10:00"), r.DateTime)
}

func TestSnooze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)

	f.clock.t = date("2024-01-31T10:00")
	_, _, err = f.store.MarkFired(ctx, id, f.clock.t)
	require.NoError(t, err)

	r, err := f.store.Snooze(ctx, id, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Active, r.State())
	assert.Equal(t, 1, r.SnoozeCount)
	assert.Equal(t, date("2024-01-31T10:10"), r.DateTime)
	assert.Equal(t, call{op: "set", id: id, at: date("2024-01-31T10:10")}, f.sched.last())

	_, err = f.store.Snooze(ctx, id, 0)
	assert.ErrorIs(t, err, ErrInvalidSnooze)
	_, err = f.store.Snooze(ctx, "missing", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkFiredOnlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)

	r, fired, err := f.store.MarkFired(ctx, id, date("2024-01-31T10:00"))
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, Fired, r.State())

	_, fired, err = f.store.MarkFired(ctx, id, date("2024-01-31T10:00"))
	require.NoError(t, err)
	assert.False(t, fired)

	_, fired, err = f.store.MarkFired(ctx, "missing", date("2024-01-31T10:00"))
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id, err := f.store.Save(ctx, Reminder{Title: "a", DateTime: date("2024-01-31T10:00")})
	require.NoError(t, err)

	f.sched.failDel = errors.New("offline")
	require.NoError(t, f.store.Delete(ctx, id))
	assert.Equal(t, call{op: "clear", id: id}, f.sched.last())

	assert.ErrorIs(t, f.store.Delete(ctx, id), ErrNotFound)
}

func TestCleanupRetentionWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.retention = func(context.Context) time.Duration { return 7 * 24 * time.Hour }

	now := f.clock.t
	old := now.AddDate(0, 0, -8)
	recent := now.AddDate(0, 0, -6)
	items := table{
		"old":    {ID: "old", Title: "old", DateTime: old, FiredAt: &old},
		"recent": {ID: "recent", Title: "recent", DateTime: recent, FiredAt: &recent},
		"missed": {ID: "missed", Title: "missed", DateTime: now.Add(-6 * time.Minute)},
		"late":   {ID: "late", Title: "late", DateTime: now.Add(-4 * time.Minute)},
		"fired":  {ID: "fired", Title: "fired", DateTime: old, IsFired: true, FiredAt: &old},
	}
	require.NoError(t, store.SetJSON(ctx, f.bucket, StorageKey, items))

	removed, err := f.store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"missed", "old"}, removed)
	assert.Equal(t, call{op: "clear", id: "missed"}, f.sched.last())

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"recent", "late", "fired"}, ids)
}

func TestListSortedByDateTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, at := range []string{"2024-02-03T10:00", "2024-02-01T10:00", "2024-02-02T10:00"} {
		_, err := f.store.Save(ctx, Reminder{Title: at, DateTime: date(at)})
		require.NoError(t, err)
	}
	list, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-02-01T10:00", list[0].Title)
	assert.Equal(t, "2024-02-03T10:00", list[2].Title)
}
