package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about where data is stored and how reminders are scheduled.",
		Example: `
quickmsg info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
				s := info.Info{
					App:    a,
					Output: out,
				}
				return s.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}
