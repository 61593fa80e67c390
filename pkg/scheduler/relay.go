package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/reminder"
)

// Action is a user response to a notification.
type Action string

const (
	ActionOpen    Action = "open"
	ActionDismiss Action = "dismiss"
	ActionSnooze  Action = "snooze"
)

var ErrUnknownAction = errors.New("scheduler: unknown action")

// ParseAction accepts open, dismiss and snooze.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionOpen, ActionDismiss, ActionSnooze:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ReminderActions is the part of the reminder store a Relay drives.
type ReminderActions interface {
	Get(ctx context.Context, id string) (*reminder.Reminder, error)
	Complete(ctx context.Context, id string) (*reminder.Reminder, error)
	Snooze(ctx context.Context, id string, d time.Duration) (*reminder.Reminder, error)
}

// RelayResult is what acting on a notification produced. URL is set for
// open.
type RelayResult struct {
	Reminder *reminder.Reminder `json:"reminder"`
	URL      string             `json:"url,omitempty"`
}

// Relay forwards notification interactions to the reminder store.
type Relay struct {
	reminders ReminderActions
	snooze    func(ctx context.Context) time.Duration
	log       *zap.Logger
}

// NewRelay returns a Relay. snooze supplies the default snooze duration.
func NewRelay(reminders ReminderActions, snooze func(ctx context.Context) time.Duration, log *zap.Logger) *Relay {
	if snooze == nil {
		snooze = func(context.Context) time.Duration { return 10 * time.Minute }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{reminders: reminders, snooze: snooze, log: log}
}

// Do applies action to the reminder id.
func (r *Relay) Do(ctx context.Context, id string, action Action) (*RelayResult, error) {
	r.log.Debug("notification action", zap.String("reminderId", id), zap.String("action", string(action)))
	switch action {
	case ActionOpen:
		cur, err := r.reminders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		done, err := r.reminders.Complete(ctx, id)
		if err != nil {
			return nil, err
		}
		return &RelayResult{Reminder: done, URL: cur.URL}, nil
	case ActionDismiss:
		done, err := r.reminders.Complete(ctx, id)
		if err != nil {
			return nil, err
		}
		return &RelayResult{Reminder: done}, nil
	case ActionSnooze:
		snoozed, err := r.reminders.Snooze(ctx, id, r.snooze(ctx))
		if err != nil {
			return nil, err
		}
		return &RelayResult{Reminder: snoozed}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}
