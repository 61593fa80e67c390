package options

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/timeutil"
)

var atLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-1-2 15:04",
}

// ReminderOptions
type ReminderOptions struct {
	ID          string
	Title       string
	Description string
	At          string
	In          string
	URL         string
	Recurrence  string
	Priority    string
}

func AddReminderArgs(cmd *cobra.Command, o *ReminderOptions) {
	cmd.Flags().StringVar(&o.ID, "id", "",
		"Replace the reminder with this id instead of creating one.")
	cmd.Flags().StringVarP(&o.Description, "description", "d", "",
		"Longer text shown with the reminder.")
	cmd.Flags().StringVar(&o.At, "at", "",
		`When the reminder is due, example: --at="2024-03-01 09:30" or RFC3339.`)
	cmd.Flags().StringVar(&o.In, "in", "",
		`Due after a delay instead, example: --in=90m or --in=2h.`)
	cmd.Flags().StringVar(&o.URL, "url", "",
		"Link to open from the reminder.")
	cmd.Flags().StringVarP(&o.Recurrence, "repeat", "r", "none",
		"One of none, daily, weekly or monthly.")
	cmd.Flags().StringVarP(&o.Priority, "priority", "p", "medium",
		"One of low, medium or high.")
}

// Reminder builds the reminder described by the flags. Exactly one of --at
// and --in must be set.
func (o *ReminderOptions) Reminder(now time.Time) (reminder.Reminder, error) {
	due, err := o.due(now)
	if err != nil {
		return reminder.Reminder{}, err
	}
	rec, err := reminder.ParseRecurrence(o.Recurrence)
	if err != nil {
		return reminder.Reminder{}, err
	}
	pri, err := reminder.ParsePriority(o.Priority)
	if err != nil {
		return reminder.Reminder{}, err
	}
	return reminder.Reminder{
		ID:          strings.TrimSpace(o.ID),
		Title:       strings.TrimSpace(o.Title),
		Description: o.Description,
		DateTime:    due,
		URL:         strings.TrimSpace(o.URL),
		Recurrence:  rec,
		Priority:    pri,
	}, nil
}

func (o *ReminderOptions) due(now time.Time) (time.Time, error) {
	at, in := strings.TrimSpace(o.At), strings.TrimSpace(o.In)
	switch {
	case at != "" && in != "":
		return time.Time{}, errors.New("use only one of --at and --in")
	case in != "":
		d, err := timeutil.Parse(in, "")
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil
	case at != "":
		for _, layout := range atLayouts {
			if t, err := time.ParseInLocation(layout, at, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot read --at %q", at)
	}
	return time.Time{}, errors.New("requires --at or --in")
}
