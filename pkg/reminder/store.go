package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/store"
)

var (
	ErrMissingTitle         = errors.New("reminder: title is required")
	ErrMissingDateTime      = errors.New("reminder: date and time are required")
	ErrPastDateTime         = errors.New("reminder: date and time must be in the future")
	ErrInvalidRecurrence    = errors.New("reminder: unknown recurrence")
	ErrInvalidPriority      = errors.New("reminder: unknown priority")
	ErrInvalidSnooze        = errors.New("reminder: snooze duration must be positive")
	ErrNotFound             = errors.New("reminder: not found")
	ErrSchedulerUnavailable = errors.New("reminder: scheduler unavailable")
	ErrAlreadyAcknowledged  = errors.New("reminder: already acknowledged")
)

const (
	// DefaultRetention applies when no retention source is configured.
	DefaultRetention = 7 * 24 * time.Hour
	// MissedGrace is how far past due an Active reminder may be before
	// cleanup treats its alarm as lost.
	MissedGrace = 5 * time.Minute
	// minLead is how far in the future a saved reminder must be.
	minLead = time.Second
)

// Scheduler raises alarms for reminders.
type Scheduler interface {
	ScheduleAt(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string) error
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Scheduler Scheduler
	// Retention returns how long Acknowledged reminders are kept.
	Retention func(ctx context.Context) time.Duration
	Now       func() time.Time
	Log       *zap.Logger
}

// Store owns every reminder mutation. The scheduler only calls MarkFired.
type Store struct {
	bucket    store.Bucket
	scheduler Scheduler
	retention func(ctx context.Context) time.Duration
	now       func() time.Time
	log       *zap.Logger

	mu    sync.Mutex
	newID func() string
}

// NewStore returns a Store persisting to bucket.
func NewStore(bucket store.Bucket, opts Options) *Store {
	s := &Store{
		bucket:    bucket,
		scheduler: opts.Scheduler,
		retention: opts.Retention,
		now:       opts.Now,
		log:       opts.Log,
		newID:     uuid.NewString,
	}
	if s.retention == nil {
		s.retention = func(context.Context) time.Duration { return DefaultRetention }
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SetScheduler replaces the scheduler. It exists because the scheduler and
// the store refer to each other.
func (s *Store) SetScheduler(sch Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = sch
}

type table map[string]*Reminder

func (s *Store) load(ctx context.Context) (table, error) {
	items := make(table)
	if _, err := store.GetJSON(ctx, s.bucket, StorageKey, &items); err != nil {
		return nil, err
	}
	for id, r := range items {
		if r == nil {
			delete(items, id)
		}
	}
	return items, nil
}

func (s *Store) write(ctx context.Context, items table) error {
	if err := store.SetJSON(ctx, s.bucket, StorageKey, items); err != nil {
		return err
	}
	metrics.DocumentWrites.WithLabelValues(StorageKey).Inc()
	return nil
}

// sweep drops expired entries from items and returns the ids removed
// because their alarm was missed.
func (s *Store) sweep(ctx context.Context, items table) (removed, missed []string) {
	now := s.now()
	retention := s.retention(ctx)
	for id, r := range items {
		switch r.State() {
		case Acknowledged:
			if now.Sub(*r.FiredAt) > retention {
				delete(items, id)
				removed = append(removed, id)
				metrics.RemindersCleaned.WithLabelValues("expired").Inc()
			}
		case Active:
			if r.DateTime.Before(now.Add(-MissedGrace)) {
				delete(items, id)
				removed = append(removed, id)
				missed = append(missed, id)
				metrics.RemindersCleaned.WithLabelValues("missed").Inc()
			}
		}
	}
	sort.Strings(removed)
	return removed, missed
}

// read loads, cleans up and persists the cleanup if it removed anything.
// Callers hold s.mu.
func (s *Store) read(ctx context.Context) (table, []string, []string, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	removed, missed := s.sweep(ctx, items)
	if len(removed) > 0 {
		if err := s.write(ctx, items); err != nil {
			return nil, nil, nil, err
		}
	}
	return items, removed, missed, nil
}

func (s *Store) cancel(ctx context.Context, sch Scheduler, ids ...string) {
	if sch == nil {
		return
	}
	for _, id := range ids {
		if err := sch.Cancel(ctx, id); err != nil {
			s.log.Warn("clearing alarm failed", zap.String("reminderId", id), zap.Error(err))
		}
	}
}

func (s *Store) schedule(ctx context.Context, sch Scheduler, r *Reminder) error {
	if sch == nil {
		return fmt.Errorf("%w: no scheduler configured", ErrSchedulerUnavailable)
	}
	if err := sch.ScheduleAt(ctx, r.ID, r.DateTime); err != nil {
		if errors.Is(err, ErrSchedulerUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSchedulerUnavailable, err)
	}
	return nil
}

// Save validates r, writes it and schedules its alarm. An empty ID creates
// a reminder. Saving always re-arms: IsFired and FiredAt are reset. If the
// alarm cannot be scheduled the previous state is restored and the error
// returned.
func (s *Store) Save(ctx context.Context, r Reminder) (string, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "", ErrMissingTitle
	}
	if r.DateTime.IsZero() {
		return "", ErrMissingDateTime
	}
	now := s.now()
	if r.DateTime.Before(now.Add(minLead)) {
		return "", ErrPastDateTime
	}
	rec, err := ParseRecurrence(string(r.Recurrence))
	if err != nil {
		return "", err
	}
	prio, err := ParsePriority(string(r.Priority))
	if err != nil {
		return "", err
	}
	r.Recurrence = rec
	r.Priority = prio
	r.IsFired = false
	r.FiredAt = nil

	s.mu.Lock()
	items, _, missed, err := s.read(ctx)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	var prev *Reminder
	if r.ID == "" {
		r.ID = s.newID()
	} else if p, ok := items[r.ID]; ok {
		cp := *p
		prev = &cp
	}
	switch {
	case prev != nil:
		r.CreatedAt = prev.CreatedAt
	case r.CreatedAt.IsZero():
		r.CreatedAt = now
	}
	saved := r
	items[r.ID] = &saved
	err = s.write(ctx, items)
	sch := s.scheduler
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	s.cancel(ctx, sch, missed...)

	if err := s.schedule(ctx, sch, &saved); err != nil {
		s.rollback(ctx, r.ID, prev)
		return "", err
	}
	return r.ID, nil
}

// rollback restores prev, or removes id when there was no previous state.
func (s *Store) rollback(ctx context.Context, id string, prev *Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err == nil {
		if prev != nil {
			items[id] = prev
		} else {
			delete(items, id)
		}
		err = s.write(ctx, items)
	}
	if err != nil {
		s.log.Warn("rolling back reminder failed", zap.String("reminderId", id), zap.Error(err))
	}
}

// Delete removes a reminder and clears its alarm.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(items, id)
	err = s.write(ctx, items)
	sch := s.scheduler
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.cancel(ctx, sch, id)
	return nil
}

// CleanupExpired removes Acknowledged reminders older than the retention
// window and Active reminders whose alarm was missed. It returns the
// removed ids.
func (s *Store) CleanupExpired(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	_, removed, missed, err := s.read(ctx)
	sch := s.scheduler
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.cancel(ctx, sch, missed...)
	return removed, nil
}

// Get returns one reminder.
func (s *Store) Get(ctx context.Context, id string) (*Reminder, error) {
	s.mu.Lock()
	items, _, missed, err := s.read(ctx)
	sch := s.scheduler
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.cancel(ctx, sch, missed...)
	r, ok := items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// List returns every reminder by DateTime.
func (s *Store) List(ctx context.Context) ([]Reminder, error) {
	s.mu.Lock()
	items, _, missed, err := s.read(ctx)
	sch := s.scheduler
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.cancel(ctx, sch, missed...)
	out := make([]Reminder, 0, len(items))
	for _, r := range items {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].DateTime.Before(out[j].DateTime)
	})
	return out, nil
}

// mutate applies fn to one reminder under the lock and writes the result.
func (s *Store) mutate(ctx context.Context, id string, fn func(r *Reminder) error) (*Reminder, Scheduler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, ok := items[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(r); err != nil {
		return nil, nil, err
	}
	if err := s.write(ctx, items); err != nil {
		return nil, nil, err
	}
	out := *r
	return &out, s.scheduler, nil
}

// Complete acts on a Fired or Active reminder. Without recurrence it
// becomes Acknowledged. With recurrence it becomes Active again at the next
// occurrence after now, keeping its id.
func (s *Store) Complete(ctx context.Context, id string) (*Reminder, error) {
	now := s.now()
	r, sch, err := s.mutate(ctx, id, func(r *Reminder) error {
		if r.State() == Acknowledged {
			return fmt.Errorf("%w: %s", ErrAlreadyAcknowledged, id)
		}
		next, ok := nextAfter(r.DateTime, r.Recurrence, now)
		if !ok {
			r.IsFired = false
			r.FiredAt = &now
			return nil
		}
		r.DateTime = next
		r.IsFired = false
		r.FiredAt = nil
		r.SnoozeCount = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	if r.State() == Acknowledged {
		s.cancel(ctx, sch, id)
	} else if err := s.schedule(ctx, sch, r); err != nil {
		s.log.Warn("scheduling next occurrence failed", zap.String("reminderId", id), zap.Error(err))
	}
	return r, nil
}

// Snooze re-arms a reminder d from now.
func (s *Store) Snooze(ctx context.Context, id string, d time.Duration) (*Reminder, error) {
	if d <= 0 {
		return nil, ErrInvalidSnooze
	}
	now := s.now()
	r, sch, err := s.mutate(ctx, id, func(r *Reminder) error {
		if r.State() == Acknowledged {
			return fmt.Errorf("%w: %s", ErrAlreadyAcknowledged, id)
		}
		r.DateTime = now.Add(d)
		r.SnoozeCount++
		r.IsFired = false
		r.FiredAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.schedule(ctx, sch, r); err != nil {
		s.log.Warn("scheduling snoozed reminder failed", zap.String("reminderId", id), zap.Error(err))
	}
	return r, nil
}

// MarkFired moves an Active reminder to Fired. It reports false, changing
// nothing, when the reminder is gone or in any other state, so an alarm
// delivered twice notifies once.
func (s *Store) MarkFired(ctx context.Context, id string, at time.Time) (*Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	r, ok := items[id]
	if !ok || r.State() != Active {
		return nil, false, nil
	}
	r.IsFired = true
	r.FiredAt = &at
	if err := s.write(ctx, items); err != nil {
		return nil, false, err
	}
	out := *r
	return &out, true, nil
}
