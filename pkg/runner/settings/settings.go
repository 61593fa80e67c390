// Package settings implements the settings subcommands.
package settings

import (
	"context"
	"strconv"

	"github.com/gosuri/uitable"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/settings"
)

type Settings struct {
	App    *app.App
	Output printers.Output
}

func (s *Settings) Get(ctx context.Context) error {
	v, err := s.App.Settings.Load(ctx)
	if err != nil {
		return err
	}
	return s.Output.Emit(v, func(pp *printers.PrettyPrint) {
		pp.Title("Settings")
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.AddRow("theme", v.Theme)
		tbl.AddRow("reminders.retentionDays", strconv.Itoa(v.Reminders.RetentionDays))
		tbl.AddRow("reminders.snoozeMinutes", strconv.Itoa(v.Reminders.SnoozeMinutes))
		tbl.AddRow("reminders.defaultPriority", v.Reminders.DefaultPriority)
		tbl.AddRow("editor.fontSize", strconv.Itoa(v.Editor.FontSize))
		_, _ = pp.Out.Write([]byte(tbl.String() + "\n\n"))
	})
}

// SetRetention stores how many days acknowledged reminders are kept. Values
// outside 1..30 are clamped.
func (s *Settings) SetRetention(ctx context.Context, days int) error {
	v, err := s.App.Settings.Update(ctx, func(v *settings.Settings) {
		v.Reminders.RetentionDays = days
	})
	if err != nil {
		return err
	}
	return s.Output.Done(v, "keeping acknowledged reminders for %d days", v.Reminders.RetentionDays)
}

func (s *Settings) SetSnooze(ctx context.Context, minutes int) error {
	v, err := s.App.Settings.Update(ctx, func(v *settings.Settings) {
		v.Reminders.SnoozeMinutes = minutes
	})
	if err != nil {
		return err
	}
	return s.Output.Done(v, "snooze is %d minutes", v.Reminders.SnoozeMinutes)
}
