// Package reminder keeps reminders through their lifecycle and asks a
// Scheduler to raise an alarm when each one is due.
//
// A reminder is Active until its alarm fires, Fired until the user acts on
// it, and Acknowledged once completed. Acknowledged reminders are kept for
// the retention window and then removed.
package reminder

import (
	"fmt"
	"strings"
	"time"
)

// StorageKey holds every reminder, keyed by id.
const StorageKey = "remindersData"

// Recurrence controls what completing a reminder does.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// ParseRecurrence accepts the recurrence names, case-insensitively. Empty
// means none.
func ParseRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RecurNone, nil
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
}

// Priority levels for reminders.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts the priority names, case-insensitively. Empty means
// medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// State is derived from IsFired and FiredAt.
type State int

const (
	Active State = iota
	Fired
	Acknowledged
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Fired:
		return "fired"
	case Acknowledged:
		return "acknowledged"
	}
	return "unknown"
}

// Reminder is a scheduled notification.
type Reminder struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DateTime    time.Time  `json:"dateTime"`
	URL         string     `json:"url"`
	Recurrence  Recurrence `json:"recurrence"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	IsFired     bool       `json:"isFired"`
	FiredAt     *time.Time `json:"firedAt"`
	SnoozeCount int        `json:"snoozeCount"`
}

// State reports where r is in its lifecycle.
func (r *Reminder) State() State {
	switch {
	case r.IsFired:
		return Fired
	case r.FiredAt != nil:
		return Acknowledged
	default:
		return Active
	}
}
