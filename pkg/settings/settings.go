// Package settings stores user preferences. Stored values are merged over
// the defaults on every read, so fields added later always have a value.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dario.cat/mergo"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/metrics"
	"tableflip.dev/quickmsg/pkg/store"
)

// StorageKey lives in the synced partition.
const StorageKey = "settings"

const (
	MinRetentionDays     = 1
	MaxRetentionDays     = 30
	DefaultRetentionDays = 7
	DefaultSnoozeMinutes = 10
)

type Settings struct {
	Theme     string            `json:"theme"`
	Reminders ReminderSettings  `json:"reminders"`
	Editor    EditorSettings    `json:"editor"`
	Shortcuts ShortcutsSettings `json:"shortcuts"`
}

type ReminderSettings struct {
	RetentionDays   int    `json:"retentionDays"`
	SnoozeMinutes   int    `json:"snoozeMinutes"`
	DefaultPriority string `json:"defaultPriority"`
}

type EditorSettings struct {
	FontSize   int    `json:"fontSize"`
	SpellCheck *bool  `json:"spellCheck,omitempty"`
	Toolbar    string `json:"toolbar"`
}

type ShortcutsSettings struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// Defaults returns the settings used for anything not stored.
func Defaults() Settings {
	return Settings{
		Theme: "light",
		Reminders: ReminderSettings{
			RetentionDays:   DefaultRetentionDays,
			SnoozeMinutes:   DefaultSnoozeMinutes,
			DefaultPriority: "medium",
		},
		Editor: EditorSettings{
			FontSize:   14,
			SpellCheck: boolPtr(true),
			Toolbar:    "full",
		},
		Shortcuts: ShortcutsSettings{Enabled: boolPtr(true)},
	}
}

func boolPtr(b bool) *bool { return &b }

// RetentionWindow is how long acknowledged reminders are kept.
func (s Settings) RetentionWindow() time.Duration {
	return time.Duration(clampRetention(s.Reminders.RetentionDays)) * 24 * time.Hour
}

// SnoozeDuration is the default snooze for notification actions.
func (s Settings) SnoozeDuration() time.Duration {
	m := s.Reminders.SnoozeMinutes
	if m < 1 {
		m = DefaultSnoozeMinutes
	}
	return time.Duration(m) * time.Minute
}

func clampRetention(days int) int {
	switch {
	case days < MinRetentionDays:
		return MinRetentionDays
	case days > MaxRetentionDays:
		return MaxRetentionDays
	}
	return days
}

func (s *Settings) normalize() error {
	if err := mergo.Merge(s, Defaults()); err != nil {
		return fmt.Errorf("settings: apply defaults: %w", err)
	}
	s.Reminders.RetentionDays = clampRetention(s.Reminders.RetentionDays)
	if s.Reminders.SnoozeMinutes < 1 {
		s.Reminders.SnoozeMinutes = DefaultSnoozeMinutes
	}
	return nil
}

// Store reads and writes Settings.
type Store struct {
	bucket store.Bucket
	log    *zap.Logger
	mu     sync.Mutex
}

func NewStore(bucket store.Bucket, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{bucket: bucket, log: log}
}

// Load returns the stored settings merged over the defaults. An unreadable
// value is logged and replaced by the defaults.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (Settings, error) {
	var out Settings
	_, err := store.GetJSON(ctx, s.bucket, StorageKey, &out)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Settings{}, err
		}
		s.log.Warn("settings unreadable, using defaults", zap.String("key", StorageKey), zap.Error(err))
		out = Settings{}
	}
	if err := out.normalize(); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// Save normalizes and writes v.
func (s *Store) Save(ctx context.Context, v Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, v)
}

func (s *Store) save(ctx context.Context, v Settings) (Settings, error) {
	if err := v.normalize(); err != nil {
		return Settings{}, err
	}
	if err := store.SetJSON(ctx, s.bucket, StorageKey, v); err != nil {
		return Settings{}, err
	}
	metrics.DocumentWrites.WithLabelValues(StorageKey).Inc()
	return v, nil
}

// Update loads the settings, applies fn and saves the result.
func (s *Store) Update(ctx context.Context, fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	fn(&cur)
	return s.save(ctx, cur)
}

// Retention returns the configured retention window, or the default window
// when settings cannot be read.
func (s *Store) Retention(ctx context.Context) time.Duration {
	v, err := s.Load(ctx)
	if err != nil {
		return Defaults().RetentionWindow()
	}
	return v.RetentionWindow()
}

// Snooze returns the configured default snooze.
func (s *Store) Snooze(ctx context.Context) time.Duration {
	v, err := s.Load(ctx)
	if err != nil {
		return Defaults().SnoozeDuration()
	}
	return v.SnoozeDuration()
}
