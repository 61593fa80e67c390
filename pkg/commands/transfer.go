package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/transfer"
)

func addTransfer(topLevel *cobra.Command) {
	export := &cobra.Command{
		Use:   "export [file]",
		Short: "Write categories and messages as JSON, to stdout when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return withTransfer(cmd, func(ctx context.Context, t *transfer.Transfer) error {
				return t.Export(ctx, path)
			})
		},
	}

	opts := transfer.ImportOptions{}
	imp := &cobra.Command{
		Use:   "import <file|->",
		Short: "Add messages from an exported file.",
		Example: `
quickmsg import backup.json
quickmsg import backup.json --only msg_1,msg_2 --into greetings
cat backup.json | quickmsg import - --new-category Imported
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Into != "" && opts.NewCategory != "" {
				return output.HandleError(errors.New("use only one of --into and --new-category"))
			}
			return withTransfer(cmd, func(ctx context.Context, t *transfer.Transfer) error {
				return t.Import(ctx, args[0], opts)
			})
		},
	}
	imp.Flags().StringSliceVar(&opts.Only, "only", nil, "Import only these message ids.")
	imp.Flags().StringVar(&opts.Into, "into", "", "Put every message in this existing category.")
	imp.Flags().StringVar(&opts.NewCategory, "new-category", "", "Put every message in a category with this name, creating it if needed.")
	_ = imp.RegisterFlagCompletionFunc("into", categoryCompletions)

	yes := false
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace every category and message with the defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return output.HandleError(errors.New("reset discards every category and message; pass --yes to confirm"))
			}
			return withTransfer(cmd, func(ctx context.Context, t *transfer.Transfer) error {
				return t.Reset(ctx)
			})
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset.")

	topLevel.AddCommand(export, imp, reset)
}

func withTransfer(cmd *cobra.Command, fn func(context.Context, *transfer.Transfer) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &transfer.Transfer{App: a, Output: out, In: cmd.InOrStdin()})
	})
}
