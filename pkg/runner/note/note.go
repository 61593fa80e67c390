// Package note implements the note subcommands.
package note

import (
	"context"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/notes"
	"tableflip.dev/quickmsg/pkg/printers"
)

type Note struct {
	App    *app.App
	Output printers.Output
}

func (n *Note) List(ctx context.Context) error {
	items, err := n.App.Notes.List(ctx)
	if err != nil {
		return err
	}
	return n.Output.Emit(items, func(pp *printers.PrettyPrint) {
		pp.Notes(items)
	})
}

func (n *Note) Add(ctx context.Context, in notes.Input) error {
	note, err := n.App.Notes.Add(ctx, in)
	if err != nil {
		return err
	}
	return n.Output.Done(note, "added note %s", note.ID)
}

func (n *Note) Delete(ctx context.Context, id string) error {
	if err := n.App.Notes.Delete(ctx, id); err != nil {
		return err
	}
	return n.Output.Done(map[string]string{"deleted": id}, "deleted note %s", id)
}

func (n *Note) Pin(ctx context.Context, id string) error {
	note, err := n.App.Notes.TogglePin(ctx, id)
	if err != nil {
		return err
	}
	if note.Pinned {
		return n.Output.Done(note, "pinned %s", note.ID)
	}
	return n.Output.Done(note, "unpinned %s", note.ID)
}
