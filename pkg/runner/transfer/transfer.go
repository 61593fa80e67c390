// Package transfer implements export, import and reset.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/category"
	"tableflip.dev/quickmsg/pkg/templates"
)

type Transfer struct {
	App    *app.App
	Output printers.Output
	// In is read for import when the path is "-". Defaults to os.Stdin.
	In io.Reader
}

// Export writes the document to path, or to the output when path is empty
// or "-".
func (t *Transfer) Export(ctx context.Context, path string) error {
	data, err := t.App.Templates.Export(ctx)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		out := t.Output.Out
		if out == nil {
			out = os.Stdout
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return t.Output.Done(map[string]string{"path": path}, "exported to %s", path)
}

// ImportOptions selects what an import takes from the file.
type ImportOptions struct {
	// Only restricts the import to these message ids from the file.
	Only []string
	// Into sends every message to an existing category, by id or name.
	Into string
	// NewCategory sends every message to a category with this name,
	// creating it when needed.
	NewCategory string
}

func (t *Transfer) Import(ctx context.Context, path string, o ImportOptions) error {
	data, err := t.read(path)
	if err != nil {
		return err
	}
	f, err := templates.ParseImport(data)
	if err != nil {
		return err
	}

	var into string
	if o.Into != "" {
		cat, err := category.Resolve(ctx, t.App, o.Into)
		if err != nil {
			return err
		}
		into = cat.ID
	}

	sels := templates.SelectAll(f)
	if len(o.Only) > 0 {
		sels = make([]templates.ImportSelection, 0, len(o.Only))
		for _, id := range o.Only {
			sels = append(sels, templates.ImportSelection{MessageID: id})
		}
	}
	for i := range sels {
		sels[i].CategoryID = into
		sels[i].NewCategoryName = o.NewCategory
	}

	res, err := t.App.Templates.Import(ctx, f, sels)
	if err != nil {
		return err
	}
	return t.Output.Done(res, "imported %d messages, created %d categories", len(res.Messages), len(res.CreatedCategories))
}

func (t *Transfer) read(path string) ([]byte, error) {
	if path == "-" {
		in := t.In
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}

func (t *Transfer) Reset(ctx context.Context) error {
	doc, err := t.App.Reset(ctx)
	if err != nil {
		return err
	}
	return t.Output.Done(doc, "restored %d default categories", len(doc.Categories))
}
