package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/commands/options"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/reminder"
	"tableflip.dev/quickmsg/pkg/timeutil"
)

func addReminder(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"reminders", "rem"},
		Short:   "Schedule and act on reminders.",
	}

	state := ""
	list := &cobra.Command{
		Use:   "list",
		Short: "List reminders.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReminder(cmd, func(ctx context.Context, r *reminder.Reminder) error {
				return r.List(ctx, state)
			})
		},
	}
	list.Flags().StringVar(&state, "state", "", "Only show active, fired or acknowledged reminders.")
	_ = list.RegisterFlagCompletionFunc("state", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"active", "fired", "acknowledged"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(
		list,
		reminderAdd(),
		reminderByID("show <id>", "Show one reminder.", func(ctx context.Context, r *reminder.Reminder, id string) error {
			return r.Show(ctx, id)
		}),
		reminderByID("delete <id>", "Delete a reminder and cancel its alarm.", func(ctx context.Context, r *reminder.Reminder, id string) error {
			return r.Delete(ctx, id)
		}),
		reminderByID("complete <id>", "Complete a reminder, rescheduling it if it repeats.", func(ctx context.Context, r *reminder.Reminder, id string) error {
			return r.Complete(ctx, id)
		}),
		reminderSnooze(),
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove acknowledged reminders older than the retention setting.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withReminder(cmd, func(ctx context.Context, r *reminder.Reminder) error {
					return r.Cleanup(ctx)
				})
			},
		},
	)
	topLevel.AddCommand(cmd)
}

func reminderAdd() *cobra.Command {
	ro := &options.ReminderOptions{}
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Schedule a reminder.",
		Example: `
quickmsg reminder add call the customer back --in 2h
quickmsg reminder add weekly report --at "2024-03-04 09:00" --repeat weekly
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a reminder title")
			}
			ro.Title = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rem, err := ro.Reminder(time.Now())
			if err != nil {
				return output.HandleError(err)
			}
			return withReminder(cmd, func(ctx context.Context, r *reminder.Reminder) error {
				return r.Add(ctx, rem)
			})
		},
	}
	options.AddReminderArgs(cmd, ro)
	return cmd
}

func reminderSnooze() *cobra.Command {
	id := &options.IDOptions{}
	return &cobra.Command{
		Use:   "snooze <id> [duration]",
		Short: "Push a reminder back, by the snooze setting unless a duration is given.",
		Example: `
quickmsg reminder snooze rem_123
quickmsg reminder snooze rem_123 1h30m
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errors.New("requires a reminder id and an optional duration")
			}
			return id.IDArg("reminder")(cmd, args[:1])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var d time.Duration
			if len(args) == 2 {
				var err error
				if d, err = timeutil.Parse(args[1], ""); err != nil {
					return output.HandleError(err)
				}
			}
			return withReminder(cmd, func(ctx context.Context, r *reminder.Reminder) error {
				return r.Snooze(ctx, id.ID, d)
			})
		},
	}
}

func reminderByID(use, short string, run func(context.Context, *reminder.Reminder, string) error) *cobra.Command {
	id := &options.IDOptions{}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  id.IDArg("reminder"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReminder(cmd, func(ctx context.Context, r *reminder.Reminder) error {
				return run(ctx, r, id.ID)
			})
		},
	}
}

func withReminder(cmd *cobra.Command, fn func(context.Context, *reminder.Reminder) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &reminder.Reminder{App: a, Output: out})
	})
}
