package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/settings"
	"tableflip.dev/quickmsg/pkg/timeutil"
)

func addSettings(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change synced settings.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show settings.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSettings(cmd, func(ctx context.Context, s *settings.Settings) error {
					return s.Get(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "set-retention <days>",
			Short: "Keep acknowledged reminders for this long, example: 7 or 2w.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				days, err := strconv.Atoi(args[0])
				if err != nil {
					if days, err = timeutil.Days(args[0]); err != nil {
						return output.HandleError(err)
					}
				}
				return withSettings(cmd, func(ctx context.Context, s *settings.Settings) error {
					return s.SetRetention(ctx, days)
				})
			},
		},
		&cobra.Command{
			Use:   "set-snooze <duration>",
			Short: "Default snooze, example: 15 or 1h.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := timeutil.Parse(args[0], "")
				if err != nil {
					return output.HandleError(err)
				}
				return withSettings(cmd, func(ctx context.Context, s *settings.Settings) error {
					return s.SetSnooze(ctx, int(d.Minutes()))
				})
			},
		},
	)
	topLevel.AddCommand(cmd)
}

func withSettings(cmd *cobra.Command, fn func(context.Context, *settings.Settings) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &settings.Settings{App: a, Output: out})
	})
}
