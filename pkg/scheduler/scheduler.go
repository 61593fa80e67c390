package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/store"
)

// Reminders is the part of the reminder store the scheduler uses.
type Reminders interface {
	List(ctx context.Context) ([]reminder.Reminder, error)
	MarkFired(ctx context.Context, id string, at time.Time) (*reminder.Reminder, bool, error)
}

// Notifier tells the user a reminder is due.
type Notifier interface {
	Notify(ctx context.Context, r reminder.Reminder) error
}

// WatchFunc streams store change events.
type WatchFunc func(ctx context.Context) (<-chan store.Event, error)

// Options configures a Scheduler.
type Options struct {
	// SweepInterval bounds how long a due alarm can go unnoticed if a timer
	// is missed. Defaults to 30s.
	SweepInterval time.Duration
	// Watch, when set, lets Run pick up alarm table writes made by other
	// processes.
	Watch     WatchFunc
	Partition store.Partition
	Now       func() time.Time
	Log       *zap.Logger
}

// Scheduler keeps the alarm table and fires due alarms. Handle is the only
// code that writes the table apart from firing.
type Scheduler struct {
	bucket    store.Bucket
	reminders Reminders
	notifier  Notifier
	sweep     time.Duration
	watch     WatchFunc
	partition store.Partition
	now       func() time.Time
	log       *zap.Logger

	mu       sync.Mutex
	requests chan envelope
	wake     chan struct{}
}

type envelope struct {
	req   Request
	reply chan Response
}

// New returns a Scheduler keeping its table in bucket.
func New(bucket store.Bucket, reminders Reminders, notifier Notifier, opts Options) *Scheduler {
	s := &Scheduler{
		bucket:    bucket,
		reminders: reminders,
		notifier:  notifier,
		sweep:     opts.SweepInterval,
		watch:     opts.Watch,
		partition: opts.Partition,
		now:       opts.Now,
		log:       opts.Log,
		requests:  make(chan envelope),
		wake:      make(chan struct{}, 1),
	}
	if s.sweep <= 0 {
		s.sweep = 30 * time.Second
	}
	if s.partition == "" {
		s.partition = store.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.log)
	}
	return s
}

// Handle applies a request to the alarm table.
func (s *Scheduler) Handle(ctx context.Context, req Request) Response {
	if err := s.apply(ctx, req); err != nil {
		return failed(err)
	}
	return succeeded()
}

// apply validates req and writes the table. Malformed requests fail with
// ErrInvalidRequest.
func (s *Scheduler) apply(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := loadAlarms(ctx, s.bucket)
	if err != nil {
		return err
	}
	switch req.Type {
	case SetAlarm:
		table[req.ReminderID] = req.AlarmTime
	case ClearAlarm:
		if _, ok := table[req.ReminderID]; !ok {
			return nil
		}
		delete(table, req.ReminderID)
	}
	if err := saveAlarms(ctx, s.bucket, table); err != nil {
		return err
	}

	if req.Type == SetAlarm {
		metrics.AlarmsScheduled.Inc()
	} else {
		metrics.AlarmsCleared.Inc()
	}
	s.log.Debug("alarm table updated",
		zap.String("type", string(req.Type)),
		zap.String("reminderId", req.ReminderID))
	s.poke()
	return nil
}

// Alarms lists the pending alarms by time.
func (s *Scheduler) Alarms(ctx context.Context) ([]Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := loadAlarms(ctx, s.bucket)
	if err != nil {
		return nil, err
	}
	return table.list(), nil
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run reconciles the alarm table with the reminder store, fires anything
// already due and then fires alarms as they come due until ctx is done.
// While Run is active it also serves requests from Client.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", zap.Duration("sweepInterval", s.sweep))

	go s.serve(ctx)

	if err := s.Reconcile(ctx); err != nil {
		s.log.Warn("reconciling alarms failed", zap.Error(err))
	}
	s.FireDue(ctx)

	var events <-chan store.Event
	if s.watch != nil {
		ch, err := s.watch(ctx)
		if err != nil {
			s.log.Warn("watching store failed, relying on sweep", zap.Error(err))
		} else {
			events = ch
		}
	}

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		timer := time.NewTimer(s.untilNext(ctx))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopped")
			return nil
		case <-timer.C:
			s.FireDue(ctx)
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.wake:
		case ev, open := <-events:
			if !open {
				events = nil
			} else if ev.Partition == s.partition && (ev.Key == "" || ev.Key == AlarmsKey) {
				s.log.Debug("alarm table changed on disk")
			}
		}
		timer.Stop()
	}
}

func (s *Scheduler) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.requests:
			env.reply <- s.Handle(ctx, env.req)
		}
	}
}

// untilNext returns the wait before the next alarm, capped at the sweep
// interval.
func (s *Scheduler) untilNext(ctx context.Context) time.Duration {
	s.mu.Lock()
	table, err := loadAlarms(ctx, s.bucket)
	s.mu.Unlock()
	if err != nil {
		return s.sweep
	}
	next, found := table.next()
	if !found {
		return s.sweep
	}
	d := next.Sub(s.now())
	if d < 0 {
		return 0
	}
	if d > s.sweep {
		return s.sweep
	}
	return d
}

// Reconcile gives every Active reminder without an alarm one at its
// DateTime and drops alarms whose reminder is no longer Active.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	return s.reconcile(ctx, true)
}

// Sweep restores alarms lost to a failed write or to another process
// overwriting the table, then fires what is due. Alarms are only added here:
// a reminder created by another process after the list was read must keep
// its alarm.
func (s *Scheduler) Sweep(ctx context.Context) []string {
	if err := s.reconcile(ctx, false); err != nil {
		s.log.Warn("restoring alarms failed", zap.Error(err))
	}
	return s.FireDue(ctx)
}

func (s *Scheduler) reconcile(ctx context.Context, prune bool) error {
	list, err := s.reminders.List(ctx)
	if err != nil {
		return err
	}
	active := make(map[string]int64, len(list))
	for _, r := range list {
		if r.State() == reminder.Active {
			active[r.ID] = r.DateTime.UnixMilli()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := loadAlarms(ctx, s.bucket)
	if err != nil {
		return err
	}
	changed := false
	for id, at := range active {
		if _, ok := table[id]; !ok {
			table[id] = at
			changed = true
			s.log.Info("restoring lost alarm", zap.String("reminderId", id))
		}
	}
	for id := range table {
		if _, ok := active[id]; !ok && prune {
			delete(table, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return saveAlarms(ctx, s.bucket, table)
}

// FireDue fires every alarm at or before now. An alarm leaves the table
// only once its reminder has been marked, or is found no longer Active, so a
// failed mark is retried on the next pass. The reminder store only marks
// Active reminders, so an alarm never notifies twice.
func (s *Scheduler) FireDue(ctx context.Context) []string {
	now := s.now()

	s.mu.Lock()
	table, err := loadAlarms(ctx, s.bucket)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("loading alarms failed", zap.Error(err))
		return nil
	}
	due := table.due(now)
	if len(due) == 0 {
		return nil
	}

	var fired []string
	done := make(alarmTable, len(due))
	for _, id := range due {
		r, transitioned, err := s.reminders.MarkFired(ctx, id, now)
		if err != nil {
			s.log.Warn("marking reminder fired failed, keeping alarm", zap.String("reminderId", id), zap.Error(err))
			continue
		}
		done[id] = table[id]
		if !transitioned {
			continue
		}
		fired = append(fired, id)
		metrics.AlarmsFired.Inc()
		if err := s.notifier.Notify(ctx, *r); err != nil && !errors.Is(err, context.Canceled) {
			metrics.NotificationsFailed.Inc()
			s.log.Warn("notification failed", zap.String("reminderId", id), zap.Error(err))
		}
	}
	if err := s.dropHandled(ctx, done); err != nil {
		s.log.Warn("removing fired alarms failed", zap.Error(err))
	}
	return fired
}

// dropHandled removes handled alarms from the table. An entry rescheduled
// to another time since it was read is kept.
func (s *Scheduler) dropHandled(ctx context.Context, done alarmTable) error {
	if len(done) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := loadAlarms(ctx, s.bucket)
	if err != nil {
		return err
	}
	changed := false
	for id, at := range done {
		if cur, ok := table[id]; ok && cur == at {
			delete(table, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return saveAlarms(ctx, s.bucket, table)
}
