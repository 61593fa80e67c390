// Package app wires configuration, persistence and every quickmsg store into
// one value shared by the CLI, the MCP server and the scheduler daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/config"
	"tableflip.dev/quickmsg/pkg/logging"
	"tableflip.dev/quickmsg/pkg/notes"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/scheduler"
	"tableflip.dev/quickmsg/pkg/settings"
	"tableflip.dev/quickmsg/pkg/store"
	"tableflip.dev/quickmsg/pkg/templates"
	"tableflip.dev/quickmsg/pkg/usage"
)

// App holds the stores and the scheduler transport for one process.
type App struct {
	Config      *config.Config
	Persistence store.Persistence
	Log         *zap.Logger

	Templates *templates.Store
	Reminders *reminder.Store
	Settings  *settings.Store
	Notes     *notes.Store
	Usage     *usage.Tracker

	// Scheduler owns the local alarm table. It is always built so the
	// embedded and daemon modes share one implementation; only Run fires.
	Scheduler *scheduler.Scheduler
	Relay     *scheduler.Relay

	notifiers *notifierSet
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	Now func() time.Time
	// Notifier replaces the notifier selected by config.
	Notifier scheduler.Notifier
}

// Open loads config, builds the logger and opens persistence.
func Open(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("app: build logger: %w", err)
	}
	p, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, p, log, Options{})
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return a, nil
}

// New wires stores over p. The reminder store talks to the scheduler the way
// cfg.Scheduler.Mode says: embedded writes the alarm table directly, remote
// goes through a daemon's HTTP bridge.
func New(ctx context.Context, cfg *config.Config, p store.Persistence, log *zap.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if p == nil {
		return nil, errors.New("app: no persistence configured")
	}
	log = logging.OrNop(log)

	a := &App{
		Config:      cfg,
		Persistence: p,
		Log:         log,
		notifiers:   &notifierSet{},
	}

	docs := p.Bucket(cfg.DocumentPartition)
	local := p.Bucket(store.Local)

	a.Templates = templates.NewStore(docs, log.Named("templates"))
	a.Settings = settings.NewStore(p.Bucket(store.Synced), log.Named("settings"))
	a.Notes = notes.NewStore(local, log.Named("notes"))
	a.Usage = usage.NewTracker(local, log.Named("usage"))
	a.Reminders = reminder.NewStore(local, reminder.Options{
		Retention: a.Settings.Retention,
		Now:       opts.Now,
		Log:       log.Named("reminders"),
	})

	if opts.Notifier != nil {
		a.notifiers.Add(opts.Notifier)
	} else {
		n, err := notifierFor(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		a.notifiers.Add(n)
	}

	a.Scheduler = scheduler.New(local, a.Reminders, a.notifiers, scheduler.Options{
		SweepInterval: cfg.Scheduler.SweepInterval,
		Watch:         p.Watch,
		Partition:     store.Local,
		Now:           opts.Now,
		Log:           log.Named("scheduler"),
	})
	a.Relay = scheduler.NewRelay(a.Reminders, a.Settings.Snooze, log.Named("relay"))

	switch cfg.Scheduler.Mode {
	case config.SchedulerRemote:
		a.Reminders.SetScheduler(scheduler.NewHTTPClient(cfg.Scheduler.Addr, cfg.Scheduler.RequestTimeout, cfg.Scheduler.Secret))
	default:
		a.Reminders.SetScheduler(scheduler.NewEmbedded(a.Scheduler))
	}
	return a, nil
}

func notifierFor(ctx context.Context, cfg *config.Config, log *zap.Logger) (scheduler.Notifier, error) {
	logN := scheduler.NewLogNotifier(log.Named("notify"))
	if cfg.Notify.Kind != config.NotifySNS {
		return logN, nil
	}
	sns, err := scheduler.NewSNSNotifier(ctx, cfg.Notify.AWSRegion, cfg.Notify.SNSTopicARN)
	if err != nil {
		return nil, err
	}
	return scheduler.Notifiers{logN, sns}, nil
}

// AddNotifier registers another notification sink, such as a websocket hub.
func (a *App) AddNotifier(n scheduler.Notifier) {
	a.notifiers.Add(n)
}

// ServeScheduler switches the reminder store to the in-process client and
// runs the scheduler until ctx is done. Only a daemon calls this.
func (a *App) ServeScheduler(ctx context.Context) error {
	a.Reminders.SetScheduler(scheduler.NewClient(a.Scheduler, a.Config.Scheduler.RequestTimeout))
	return a.Scheduler.Run(ctx)
}

// UseMessage returns a message and counts the use.
func (a *App) UseMessage(ctx context.Context, id string) (*templates.Message, error) {
	m, err := a.Templates.Message(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := a.Usage.Record(ctx, id); err != nil {
		a.Log.Warn("record usage", zap.String("messageId", id), zap.Error(err))
	}
	return m, nil
}

// RemoveMessage deletes a message and its usage counters.
func (a *App) RemoveMessage(ctx context.Context, id string) error {
	if err := a.Templates.RemoveMessage(ctx, id); err != nil {
		return err
	}
	if err := a.Usage.Forget(ctx, id); err != nil {
		a.Log.Warn("forget usage", zap.String("messageId", id), zap.Error(err))
	}
	return nil
}

// Reset restores the default document and drops all usage counters.
func (a *App) Reset(ctx context.Context) (*templates.Document, error) {
	doc, err := a.Templates.Reset(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Usage.Reset(ctx); err != nil {
		a.Log.Warn("reset usage", zap.Error(err))
	}
	return doc, nil
}

// FrequentMessages returns up to n messages ordered by use, skipping counters
// whose message no longer exists.
func (a *App) FrequentMessages(ctx context.Context, n int) ([]templates.Message, error) {
	stats, err := a.Usage.Top(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]templates.Message, 0, n)
	for _, st := range stats {
		if n > 0 && len(out) == n {
			break
		}
		m, err := a.Templates.Message(ctx, st.MessageID)
		if errors.Is(err, templates.ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// Close releases persistence.
func (a *App) Close() error {
	if a.Persistence == nil {
		return nil
	}
	return a.Persistence.Close()
}

// notifierSet fans out to notifiers added at any time before or during Run.
type notifierSet struct {
	mu  sync.RWMutex
	all scheduler.Notifiers
}

func (s *notifierSet) Add(n scheduler.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, n)
}

func (s *notifierSet) Notify(ctx context.Context, r reminder.Reminder) error {
	s.mu.RLock()
	all := append(scheduler.Notifiers(nil), s.all...)
	s.mu.RUnlock()
	return all.Notify(ctx, r)
}
