// Package category implements the category subcommands.
package category

import (
	"context"
	"fmt"
	"strings"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/templates"
)

type Category struct {
	App    *app.App
	Output printers.Output
}

// Resolve finds a category by id, or by name ignoring case.
func Resolve(ctx context.Context, a *app.App, ref string) (*templates.Category, error) {
	cats, err := a.Templates.Categories(ctx)
	if err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	for i := range cats {
		if cats[i].ID == ref {
			return &cats[i], nil
		}
	}
	for i := range cats {
		if strings.EqualFold(cats[i].Name, ref) {
			return &cats[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", templates.ErrCategoryNotFound, ref)
}

func (c *Category) List(ctx context.Context) error {
	doc, err := c.App.Templates.Document(ctx)
	if err != nil {
		return err
	}
	return c.Output.Emit(doc.Categories, func(pp *printers.PrettyPrint) {
		pp.Categories(doc)
	})
}

// Add creates a category. The store accepts a repeated shortcut on create,
// so uniqueness is checked here first.
func (c *Category) Add(ctx context.Context, name, shortcut string) error {
	if strings.TrimSpace(shortcut) != "" {
		owner, err := c.App.Templates.FindByShortcut(ctx, shortcut)
		if err != nil {
			return err
		}
		if owner != nil {
			return fmt.Errorf("%w: %s is used by %s", templates.ErrShortcutConflict, owner.Shortcut, owner.Name)
		}
	}
	cat, err := c.App.Templates.AddCategory(ctx, name, shortcut)
	if err != nil {
		return err
	}
	return c.Output.Done(cat, "added category %q (%s)", cat.Name, cat.ID)
}

func (c *Category) Rename(ctx context.Context, ref, name string) error {
	cur, err := Resolve(ctx, c.App, ref)
	if err != nil {
		return err
	}
	cat, err := c.App.Templates.RenameCategory(ctx, cur.ID, name)
	if err != nil {
		return err
	}
	return c.Output.Done(cat, "renamed %q to %q", cur.Name, cat.Name)
}

// Shortcut binds a shortcut; an empty shortcut clears it.
func (c *Category) Shortcut(ctx context.Context, ref, shortcut string) error {
	cur, err := Resolve(ctx, c.App, ref)
	if err != nil {
		return err
	}
	cat, err := c.App.Templates.UpdateCategoryShortcut(ctx, cur.ID, shortcut)
	if err != nil {
		return err
	}
	if cat.Shortcut == "" {
		return c.Output.Done(cat, "cleared shortcut of %q", cat.Name)
	}
	return c.Output.Done(cat, "%q is now on %s", cat.Name, cat.Shortcut)
}

func (c *Category) Delete(ctx context.Context, ref string) error {
	cur, err := Resolve(ctx, c.App, ref)
	if err != nil {
		return err
	}
	if err := c.App.Templates.DeleteCategory(ctx, cur.ID); err != nil {
		return err
	}
	return c.Output.Done(map[string]string{"deleted": cur.ID}, "deleted category %q", cur.Name)
}
