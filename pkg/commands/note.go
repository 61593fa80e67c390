package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/commands/options"
	"tableflip.dev/quickmsg/pkg/notes"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/note"
)

func addNote(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Keep short notes.",
	}

	in := notes.Input{}
	add := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a note",
		Example: `
quickmsg note add --title "Escalation path" ask for the duty manager first
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a note")
			}
			in.Content = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNote(cmd, func(ctx context.Context, n *note.Note) error {
				return n.Add(ctx, in)
			})
		},
	}
	add.Flags().StringVarP(&in.Title, "title", "t", "", "Note title.")
	add.Flags().StringVar(&in.Color, "color", "", "Note color.")

	deleteID := &options.IDOptions{}
	pinID := &options.IDOptions{}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List notes, pinned first.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNote(cmd, func(ctx context.Context, n *note.Note) error {
					return n.List(ctx)
				})
			},
		},
		add,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a note.",
			Args:  deleteID.IDArg("note"),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNote(cmd, func(ctx context.Context, n *note.Note) error {
					return n.Delete(ctx, deleteID.ID)
				})
			},
		},
		&cobra.Command{
			Use:   "pin <id>",
			Short: "Pin or unpin a note.",
			Args:  pinID.IDArg("note"),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNote(cmd, func(ctx context.Context, n *note.Note) error {
					return n.Pin(ctx, pinID.ID)
				})
			},
		},
	)
	topLevel.AddCommand(cmd)
}

func withNote(cmd *cobra.Command, fn func(context.Context, *note.Note) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &note.Note{App: a, Output: out})
	})
}
