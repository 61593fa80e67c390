package commands

import (
	"context"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/commands/options"
	"tableflip.dev/quickmsg/pkg/printers"
)

var (
	output = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "quickmsg",
		Short: base.Wrap80("Canned messages, reminders and notes on the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddOutputArgs(cmd, output)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addCategory(topLevel)
	addMessage(topLevel)
	addReminder(topLevel)
	addNote(topLevel)
	addTransfer(topLevel)
	addSettings(topLevel)
	addServe(topLevel)
	addMCP(topLevel)
	addInfo(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, out printers.Output) error) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Open(ctx)
	if err != nil {
		return output.HandleError(err)
	}
	defer func() { _ = a.Close() }()
	return output.HandleError(fn(ctx, a, output.Printer(cmd)))
}
