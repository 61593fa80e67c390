// Package message implements the message subcommands.
package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/category"
	"tableflip.dev/quickmsg/pkg/templates"
)

type Message struct {
	App    *app.App
	Output printers.Output
}

// List prints the messages of one category, or of every category when ref
// is empty. Frequent lists the n most used messages instead.
func (m *Message) List(ctx context.Context, ref string, frequent int) error {
	if frequent > 0 {
		top, err := m.App.FrequentMessages(ctx, frequent)
		if err != nil {
			return err
		}
		return m.Output.Emit(top, func(pp *printers.PrettyPrint) {
			pp.Messages("Most used", top)
		})
	}

	doc, err := m.App.Templates.Document(ctx)
	if err != nil {
		return err
	}
	cats := doc.Categories
	if ref != "" {
		cat, err := category.Resolve(ctx, m.App, ref)
		if err != nil {
			return err
		}
		cats = []templates.Category{*cat}
	}
	all := make([]templates.Message, 0, len(doc.Messages))
	for _, c := range cats {
		all = append(all, doc.MessagesIn(c.ID)...)
	}
	return m.Output.Emit(all, func(pp *printers.PrettyPrint) {
		for _, c := range cats {
			pp.Messages(c.Name, doc.MessagesIn(c.ID))
		}
	})
}

func (m *Message) Add(ctx context.Context, ref, title, body string) error {
	cat, err := category.Resolve(ctx, m.App, ref)
	if err != nil {
		return err
	}
	msg, err := m.App.Templates.AddMessage(ctx, templates.MessageInput{
		Title:      title,
		Message:    body,
		CategoryID: cat.ID,
	})
	if err != nil {
		return err
	}
	return m.Output.Done(msg, "added %q to %s (%s)", msg.Title, cat.Name, msg.ID)
}

// Update applies the non-nil fields of patch. A category patch may name the
// category instead of giving its id.
func (m *Message) Update(ctx context.Context, id string, patch templates.MessagePatch) error {
	if patch.CategoryID != nil {
		cat, err := category.Resolve(ctx, m.App, *patch.CategoryID)
		if err != nil {
			return err
		}
		patch.CategoryID = &cat.ID
	}
	msg, err := m.App.Templates.UpdateMessage(ctx, id, patch)
	if err != nil {
		return err
	}
	return m.Output.Done(msg, "updated %q", msg.Title)
}

func (m *Message) Remove(ctx context.Context, id string) error {
	if err := m.App.RemoveMessage(ctx, id); err != nil {
		return err
	}
	return m.Output.Done(map[string]string{"removed": id}, "removed %s", id)
}

// Move places id before or after target, or at index when target is empty.
// An empty category ref keeps the message where it is. A negative index
// appends.
func (m *Message) Move(ctx context.Context, id, ref, target, position string, index int) error {
	cur, err := m.App.Templates.Message(ctx, id)
	if err != nil {
		return err
	}
	catID := cur.CategoryID
	if ref != "" {
		cat, err := category.Resolve(ctx, m.App, ref)
		if err != nil {
			return err
		}
		catID = cat.ID
	}

	var moved *templates.Message
	switch {
	case target != "":
		pos, ok := templates.ParsePosition(strings.ToLower(position))
		if !ok {
			return fmt.Errorf("unknown position %q (expected before, after or append)", position)
		}
		moved, err = m.App.Templates.Drop(ctx, id, catID, target, pos)
	case index < 0:
		moved, err = m.App.Templates.Drop(ctx, id, catID, "", templates.Append)
	default:
		moved, err = m.App.Templates.Reorder(ctx, id, catID, index)
	}
	if err != nil {
		return err
	}
	return m.Output.Done(moved, "moved %q to position %d", moved.Title, moved.Order+1)
}

// Use prints a message body, optionally copying it to the clipboard, and
// counts the use.
func (m *Message) Use(ctx context.Context, id string, copyIt bool) error {
	msg, err := m.App.UseMessage(ctx, id)
	if err != nil {
		return err
	}
	if copyIt {
		if err := clipboard.WriteAll(msg.Message); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	return m.Output.Emit(msg, func(pp *printers.PrettyPrint) {
		pp.Title(msg.Title)
		_, _ = fmt.Fprintln(pp.Out, msg.Message)
		if copyIt {
			_, _ = fmt.Fprintln(pp.Out, "(copied)")
		}
	})
}
