// Package reminder implements the reminder subcommands.
package reminder

import (
	"context"
	"strings"
	"time"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/reminder"
)

type Reminder struct {
	App    *app.App
	Output printers.Output
}

// List prints reminders, optionally only those in state.
func (r *Reminder) List(ctx context.Context, state string) error {
	all, err := r.App.Reminders.List(ctx)
	if err != nil {
		return err
	}
	state = strings.ToLower(strings.TrimSpace(state))
	items := all
	if state != "" && state != "all" {
		items = make([]reminder.Reminder, 0, len(all))
		for _, rem := range all {
			if rem.State().String() == state {
				items = append(items, rem)
			}
		}
	}
	return r.Output.Emit(items, func(pp *printers.PrettyPrint) {
		pp.Reminders(items)
	})
}

func (r *Reminder) Show(ctx context.Context, id string) error {
	rem, err := r.App.Reminders.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.Output.Emit(rem, func(pp *printers.PrettyPrint) {
		pp.Reminder(rem)
	})
}

// Add saves rem. A set ID replaces that reminder.
func (r *Reminder) Add(ctx context.Context, rem reminder.Reminder) error {
	id, err := r.App.Reminders.Save(ctx, rem)
	if err != nil {
		return err
	}
	saved, err := r.App.Reminders.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.Output.Done(saved, "%q due %s (%s)", saved.Title, saved.DateTime.Local().Format(time.RFC1123), saved.ID)
}

func (r *Reminder) Delete(ctx context.Context, id string) error {
	if err := r.App.Reminders.Delete(ctx, id); err != nil {
		return err
	}
	return r.Output.Done(map[string]string{"deleted": id}, "deleted %s", id)
}

func (r *Reminder) Complete(ctx context.Context, id string) error {
	rem, err := r.App.Reminders.Complete(ctx, id)
	if err != nil {
		return err
	}
	if rem.State() == reminder.Active {
		return r.Output.Done(rem, "%q next due %s", rem.Title, rem.DateTime.Local().Format(time.RFC1123))
	}
	return r.Output.Done(rem, "completed %q", rem.Title)
}

// Snooze pushes a reminder back by d, or by the snooze setting when d is 0.
func (r *Reminder) Snooze(ctx context.Context, id string, d time.Duration) error {
	if d == 0 {
		d = r.App.Settings.Snooze(ctx)
	}
	rem, err := r.App.Reminders.Snooze(ctx, id, d)
	if err != nil {
		return err
	}
	return r.Output.Done(rem, "snoozed %q until %s", rem.Title, rem.DateTime.Local().Format(time.Kitchen))
}

func (r *Reminder) Cleanup(ctx context.Context) error {
	removed, err := r.App.Reminders.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	return r.Output.Done(map[string]any{"removed": removed}, "removed %d reminders", len(removed))
}
