package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/category"
)

func addCategory(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage message categories.",
	}

	cmd.AddCommand(
		categoryCommand("list", "List categories and their messages.", cobra.NoArgs,
			func(ctx context.Context, c *category.Category, _ []string) error {
				return c.List(ctx)
			}),
		categoryCommand("delete <category>", "Delete a category and its messages.", cobra.ExactArgs(1),
			func(ctx context.Context, c *category.Category, args []string) error {
				return c.Delete(ctx, args[0])
			}),
		categoryCommand("rename <category> <name>", "Rename a category.", cobra.MinimumNArgs(2),
			func(ctx context.Context, c *category.Category, args []string) error {
				return c.Rename(ctx, args[0], strings.Join(args[1:], " "))
			}),
		categoryCommand("shortcut <category> [shortcut]", "Set or clear a category's shortcut.", cobra.RangeArgs(1, 2),
			func(ctx context.Context, c *category.Category, args []string) error {
				sc := ""
				if len(args) == 2 {
					sc = args[1]
				}
				return c.Shortcut(ctx, args[0], sc)
			}),
	)

	shortcut := ""
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category.",
		Example: `
quickmsg category add Escalations --shortcut ctrl+shift+4
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a category name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCategory(cmd, func(ctx context.Context, c *category.Category) error {
				return c.Add(ctx, strings.Join(args, " "), shortcut)
			})
		},
	}
	add.Flags().StringVar(&shortcut, "shortcut", "", "Keyboard shortcut, example: ctrl+shift+4.")
	cmd.AddCommand(add)

	topLevel.AddCommand(cmd)
}

func categoryCommand(use, short string, args cobra.PositionalArgs, run func(context.Context, *category.Category, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCategory(cmd, func(ctx context.Context, c *category.Category) error {
				return run(ctx, c, args)
			})
		},
	}
}

func withCategory(cmd *cobra.Command, fn func(context.Context, *category.Category) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &category.Category{App: a, Output: out})
	})
}
