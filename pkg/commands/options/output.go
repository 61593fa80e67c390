package options

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/printers"
)

// OutputOptions
type OutputOptions struct {
	JSON   bool
	ShowID bool
}

// AddOutputArgs registers the output flags on cmd and every subcommand.
func AddOutputArgs(cmd *cobra.Command, po *OutputOptions) {
	cmd.PersistentFlags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
	cmd.PersistentFlags().BoolVarP(&po.ShowID, "show-id", "k", false,
		"Show the ID of each category, message, reminder or note.")
}

// Printer returns the printer for cmd's output stream.
func (o *OutputOptions) Printer(cmd *cobra.Command) printers.Output {
	return printers.Output{
		JSON:   o.JSON,
		ShowID: o.ShowID,
		Out:    cmd.OutOrStdout(),
	}
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
