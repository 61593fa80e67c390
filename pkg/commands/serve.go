package commands

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/serve"
)

func addServe(topLevel *cobra.Command) {
	var addr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder scheduler daemon.",
		Long: `Run the scheduler in the foreground. It fires reminder alarms, serves the
alarm API used by clients in remote mode, and streams fired reminders to
websocket listeners on /events.`,
		Example: `
quickmsg serve
quickmsg serve --addr 0.0.0.0:7465 --metrics-addr 127.0.0.1:9465
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ printers.Output) error {
				d := serve.Daemon{
					App:         a,
					Addr:        a.Config.Scheduler.Addr,
					MetricsAddr: a.Config.Metrics.Addr,
					OnListening: func(l net.Addr) {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scheduler listening on %s\n", l)
					},
				}
				if cmd.Flags().Changed("addr") {
					d.Addr = addr
				}
				if cmd.Flags().Changed("metrics-addr") {
					d.MetricsAddr = metricsAddr
				}
				return d.Do(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to scheduler.addr.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics here, defaults to metrics.addr. Equal to --addr mounts it on the same server.")

	topLevel.AddCommand(cmd)
}
