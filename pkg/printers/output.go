package printers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Output picks between JSON and pretty rendering for a command result.
type Output struct {
	JSON   bool
	ShowID bool
	Out    io.Writer
}

func (o Output) writer() io.Writer {
	if o.Out == nil {
		return color.Output
	}
	return o.Out
}

// Emit writes v as indented JSON, or calls pretty.
func (o Output) Emit(v any, pretty func(pp *PrettyPrint)) error {
	if o.JSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(o.writer(), string(b))
		return err
	}
	pretty(&PrettyPrint{ShowID: o.ShowID, Out: o.writer()})
	return nil
}

// Done reports a completed mutation in one line.
func (o Output) Done(v any, format string, args ...any) error {
	return o.Emit(v, func(pp *PrettyPrint) {
		_, _ = color.New(color.FgGreen).Fprint(pp.out(), "✓ ")
		_, _ = fmt.Fprintf(pp.out(), format+"\n", args...)
	})
}
