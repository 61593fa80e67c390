package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/quickmsg/pkg/app"
	"tableflip.dev/quickmsg/pkg/commands/options"
	"tableflip.dev/quickmsg/pkg/printers"
	"tableflip.dev/quickmsg/pkg/runner/message"
	"tableflip.dev/quickmsg/pkg/templates"
)

func addMessage(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"messages", "msg"},
		Short:   "Manage canned messages.",
	}

	cmd.AddCommand(
		messageList(),
		messageAdd(),
		messageUpdate(),
		messageRemove(),
		messageMove(),
		messageUse(),
	)
	topLevel.AddCommand(cmd)
}

func messageList() *cobra.Command {
	frequent := 0
	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List messages, grouped by category.",
		Example: `
quickmsg message list
quickmsg message list greetings
quickmsg message list --frequent 5
`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: categoryCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.List(ctx, ref, frequent)
			})
		},
	}
	cmd.Flags().IntVar(&frequent, "frequent", 0, "List the n most used messages instead.")
	return cmd
}

func messageAdd() *cobra.Command {
	var category, title, body string
	cmd := &cobra.Command{
		Use:   "add <message...>",
		Short: "Add a message to a category.",
		Example: `
quickmsg message add --category greetings --title "Morning" Good morning, how can I help?
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires the message text")
			}
			body = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.Add(ctx, category, title, body)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id or name.")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Message title.")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.RegisterFlagCompletionFunc("category", categoryCompletions)
	return cmd
}

func messageUpdate() *cobra.Command {
	id := &options.IDOptions{}
	var category, title, body string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a message's title, text or category.",
		Args:  id.IDArg("message"),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := templates.MessagePatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("message") {
				patch.Message = &body
			}
			if cmd.Flags().Changed("category") {
				patch.CategoryID = &category
			}
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.Update(ctx, id.ID, patch)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Move to this category id or name.")
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title.")
	cmd.Flags().StringVarP(&body, "message", "m", "", "New message text.")
	_ = cmd.RegisterFlagCompletionFunc("category", categoryCompletions)
	return cmd
}

func messageRemove() *cobra.Command {
	id := &options.IDOptions{}
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a message.",
		Args:    id.IDArg("message"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.Remove(ctx, id.ID)
			})
		},
	}
}

func messageMove() *cobra.Command {
	id := &options.IDOptions{}
	var (
		category, before, after string
		index                   int
	)
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Reorder a message or move it to another category.",
		Example: `
quickmsg message move msg_123 --index 0
quickmsg message move msg_123 --before msg_456
quickmsg message move msg_123 --category follow-ups
`,
		Args: id.IDArg("message"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if before != "" && after != "" {
				return errors.New("use only one of --before and --after")
			}
			target, position := before, templates.Before.String()
			if after != "" {
				target, position = after, templates.After.String()
			}
			if target == "" && !cmd.Flags().Changed("index") {
				index = -1
			}
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.Move(ctx, id.ID, category, target, position, index)
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Destination category id or name.")
	cmd.Flags().StringVar(&before, "before", "", "Place before this message id.")
	cmd.Flags().StringVar(&after, "after", "", "Place after this message id.")
	cmd.Flags().IntVar(&index, "index", 0, "Zero-based position in the category.")
	_ = cmd.RegisterFlagCompletionFunc("category", categoryCompletions)
	return cmd
}

func messageUse() *cobra.Command {
	id := &options.IDOptions{}
	copyIt := false
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Print a message and count the use.",
		Args:  id.IDArg("message"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMessage(cmd, func(ctx context.Context, m *message.Message) error {
				return m.Use(ctx, id.ID, copyIt)
			})
		},
	}
	cmd.Flags().BoolVar(&copyIt, "copy", false, "Copy the message text to the clipboard.")
	return cmd
}

func withMessage(cmd *cobra.Command, fn func(context.Context, *message.Message) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, out printers.Output) error {
		return fn(ctx, &message.Message{App: a, Output: out})
	})
}
