// Package mcp provides the Model Context Protocol server integration for quickmsg.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/templates"
)

// Service adapts the application stores to the shapes MCP tools return.
type Service struct {
	App *app.App
}

var errNoApp = errors.New("application is not configured")

// CategorySummary describes a category and how many messages it holds.
type CategorySummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Shortcut     string `json:"shortcut,omitempty"`
	MessageCount int    `json:"messageCount"`
}

// MoveOptions describes where a message should land. TargetID and Position
// place it next to another message; otherwise Index places it by position,
// and a negative Index appends.
type MoveOptions struct {
	ID         string
	CategoryID string
	TargetID   string
	Position   string
	Index      int
}

// ReminderInput is a reminder as MCP clients send it, with RFC3339 times.
type ReminderInput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime"`
	URL         string `json:"url"`
	Recurrence  string `json:"recurrence"`
	Priority    string `json:"priority"`
}

// NewService builds a service over a.
func NewService(a *app.App) *Service {
	return &Service{App: a}
}

func (s *Service) ready() error {
	if s.App == nil {
		return errNoApp
	}
	return nil
}

// Document returns the whole template document.
func (s *Service) Document(ctx context.Context) (*templates.Document, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Templates.Document(ctx)
}

// ListCategories returns every category in display order.
func (s *Service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategorySummary, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		out = append(out, CategorySummary{
			ID:           c.ID,
			Name:         c.Name,
			Shortcut:     c.Shortcut,
			MessageCount: len(doc.MessagesIn(c.ID)),
		})
	}
	return out, nil
}

func (s *Service) AddCategory(ctx context.Context, name, shortcut string) (*templates.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Templates.AddCategory(ctx, name, shortcut)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.App.Templates.DeleteCategory(ctx, id)
}

// ListMessages returns the messages of categoryID in order, or all messages
// when categoryID is empty.
func (s *Service) ListMessages(ctx context.Context, categoryID string) ([]templates.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Templates.Messages(ctx, categoryID)
}

func (s *Service) AddMessage(ctx context.Context, in templates.MessageInput) (*templates.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Templates.AddMessage(ctx, in)
}

func (s *Service) UpdateMessage(ctx context.Context, id string, patch templates.MessagePatch) (*templates.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Templates.UpdateMessage(ctx, id, patch)
}

func (s *Service) RemoveMessage(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.App.RemoveMessage(ctx, id)
}

// MoveMessage relocates a message. An empty CategoryID keeps it in its
// current category.
func (s *Service) MoveMessage(ctx context.Context, o MoveOptions) (*templates.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cat := strings.TrimSpace(o.CategoryID)
	if cat == "" {
		cur, err := s.App.Templates.Message(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		cat = cur.CategoryID
	}
	if o.TargetID != "" {
		pos, ok := templates.ParsePosition(strings.ToLower(strings.TrimSpace(o.Position)))
		if !ok {
			return nil, fmt.Errorf("unknown position %q (expected before, after or append)", o.Position)
		}
		return s.App.Templates.Drop(ctx, o.ID, cat, o.TargetID, pos)
	}
	if o.Index < 0 {
		return s.App.Templates.Drop(ctx, o.ID, cat, "", templates.Append)
	}
	return s.App.Templates.Reorder(ctx, o.ID, cat, o.Index)
}

// ListReminders returns reminders by due time, optionally only those in the
// named state.
func (s *Service) ListReminders(ctx context.Context, state string) ([]reminder.Reminder, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.App.Reminders.List(ctx)
	if err != nil {
		return nil, err
	}
	state = strings.ToLower(strings.TrimSpace(state))
	if state == "" || state == "all" {
		return all, nil
	}
	out := make([]reminder.Reminder, 0, len(all))
	for i := range all {
		if all[i].State().String() == state {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// SaveReminder creates or replaces a reminder and returns it as stored.
func (s *Service) SaveReminder(ctx context.Context, in ReminderInput) (*reminder.Reminder, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	r := reminder.Reminder{
		ID:          strings.TrimSpace(in.ID),
		Title:       in.Title,
		Description: in.Description,
		URL:         strings.TrimSpace(in.URL),
		Recurrence:  reminder.Recurrence(in.Recurrence),
		Priority:    reminder.Priority(in.Priority),
	}
	if ts := strings.TrimSpace(in.DateTime); ts != "" {
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid dateTime %q: %w", in.DateTime, err)
		}
		r.DateTime = at
	}
	id, err := s.App.Reminders.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.App.Reminders.Get(ctx, id)
}

func (s *Service) CompleteReminder(ctx context.Context, id string) (*reminder.Reminder, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.App.Reminders.Complete(ctx, id)
}

// SnoozeReminder pushes a reminder back by d, or by the configured default
// when d is zero.
func (s *Service) SnoozeReminder(ctx context.Context, id string, d time.Duration) (*reminder.Reminder, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if d == 0 {
		d = s.App.Settings.Snooze(ctx)
	}
	return s.App.Reminders.Snooze(ctx, id, d)
}

func (s *Service) DeleteReminder(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.App.Reminders.Delete(ctx, id)
}
