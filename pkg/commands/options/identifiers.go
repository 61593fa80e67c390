package options

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// IDOptions
type IDOptions struct {
	ID string
}

// IDArg takes the id from the only positional argument.
func (o *IDOptions) IDArg(noun string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return errors.New("requires a " + noun + " id")
		}
		o.ID = strings.TrimSpace(args[0])
		return nil
	}
}
