package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/quickmsg/pkg/templates"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListCategoriesTool(srv, svc)
	registerAddCategoryTool(srv, svc)
	registerDeleteCategoryTool(srv, svc)
	registerListMessagesTool(srv, svc)
	registerAddMessageTool(srv, svc)
	registerUpdateMessageTool(srv, svc)
	registerRemoveMessageTool(srv, svc)
	registerMoveMessageTool(srv, svc)
	registerListRemindersTool(srv, svc)
	registerSaveReminderTool(srv, svc)
	registerCompleteReminderTool(srv, svc)
	registerSnoozeReminderTool(srv, svc)
	registerDeleteReminderTool(srv, svc)
}

func registerListCategoriesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_categories",
		mcp.WithDescription("List template categories with their shortcut and message count."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cats, err := svc.ListCategories(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"categories": cats,
			"count":      len(cats),
		})
	})
}

func registerAddCategoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_category",
		mcp.WithDescription("Create a template category."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Category name, unique ignoring case."),
		),
		mcp.WithString("shortcut",
			mcp.Description("Optional keyboard shortcut such as Ctrl+Shift+4."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cat, err := svc.AddCategory(ctx, name, request.GetString("shortcut", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(cat)
	})
}

func registerDeleteCategoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_category",
		mcp.WithDescription("Delete a category. Its messages move to the first remaining category."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Category identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteCategory(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": id})
	})
}

func registerListMessagesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_messages",
		mcp.WithDescription("List template messages in order, for one category or all of them."),
		mcp.WithString("category_id",
			mcp.Description("Optional category filter."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cat := strings.TrimSpace(request.GetString("category_id", ""))
		msgs, err := svc.ListMessages(ctx, cat)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"categoryId": cat,
			"messages":   msgs,
			"count":      len(msgs),
		})
	})
}

func registerAddMessageTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_message",
		mcp.WithDescription("Append a template message to a category."),
		mcp.WithString("category_id",
			mcp.Required(),
			mcp.Description("Category that should hold the message."),
		),
		mcp.WithString("title",
			mcp.Description("Short title. Derived from the body when empty."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message body; HTML is sanitized."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			CategoryID string `json:"category_id"`
			Title      string `json:"title"`
			Message    string `json:"message"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		msg, err := svc.AddMessage(ctx, templates.MessageInput{
			Title:      args.Title,
			Message:    args.Message,
			CategoryID: args.CategoryID,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(msg)
	})
}

func registerUpdateMessageTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"update_message",
		mcp.WithDescription("Change the title, body or category of a message. Omitted fields are kept."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Message identifier."),
		),
		mcp.WithString("title", mcp.Description("New title.")),
		mcp.WithString("message", mcp.Description("New body.")),
		mcp.WithString("category_id", mcp.Description("Category to move the message to; it is appended there.")),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID         string  `json:"id"`
			Title      *string `json:"title"`
			Message    *string `json:"message"`
			CategoryID *string `json:"category_id"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		msg, err := svc.UpdateMessage(ctx, args.ID, templates.MessagePatch{
			Title:      args.Title,
			Message:    args.Message,
			CategoryID: args.CategoryID,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(msg)
	})
}

func registerRemoveMessageTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"remove_message",
		mcp.WithDescription("Delete a template message."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Message identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.RemoveMessage(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"removed": id})
	})
}

func registerMoveMessageTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"move_message",
		mcp.WithDescription("Reorder a message or move it to another category."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Message identifier."),
		),
		mcp.WithString("category_id",
			mcp.Description("Destination category; defaults to the current one."),
		),
		mcp.WithString("target_id",
			mcp.Description("Message to drop next to."),
		),
		mcp.WithString("position",
			mcp.Description("Where to land relative to target_id."),
			mcp.Enum("before", "after", "append"),
		),
		mcp.WithNumber("index",
			mcp.Description("Zero-based destination index when no target_id is given; omit to append."),
			mcp.Min(0),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		msg, err := svc.MoveMessage(ctx, MoveOptions{
			ID:         id,
			CategoryID: request.GetString("category_id", ""),
			TargetID:   strings.TrimSpace(request.GetString("target_id", "")),
			Position:   request.GetString("position", "before"),
			Index:      request.GetInt("index", -1),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(msg)
	})
}

func registerListRemindersTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_reminders",
		mcp.WithDescription("List reminders ordered by due time."),
		mcp.WithString("state",
			mcp.Description("Optional state filter."),
			mcp.Enum("all", "active", "fired", "acknowledged"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state := request.GetString("state", "all")
		items, err := svc.ListReminders(ctx, state)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"state":     state,
			"reminders": items,
			"count":     len(items),
		})
	})
}

func registerSaveReminderTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"save_reminder",
		mcp.WithDescription("Create a reminder, or replace one when id is given, and schedule its alarm."),
		mcp.WithString("id", mcp.Description("Existing reminder to replace.")),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("What to be reminded of."),
		),
		mcp.WithString("dateTime",
			mcp.Required(),
			mcp.Description("RFC3339 due time; must be in the future."),
		),
		mcp.WithString("description", mcp.Description("Optional details.")),
		mcp.WithString("url", mcp.Description("Optional link opened from the notification.")),
		mcp.WithString("recurrence",
			mcp.Description("Repeat rule."),
			mcp.Enum("none", "daily", "weekly", "monthly"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority."),
			mcp.Enum("low", "medium", "high"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var in ReminderInput
		if err := request.BindArguments(&in); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		r, err := svc.SaveReminder(ctx, in)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(r)
	})
}

func registerCompleteReminderTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"complete_reminder",
		mcp.WithDescription("Acknowledge a reminder. Recurring reminders roll to their next occurrence."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Reminder identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r, err := svc.CompleteReminder(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(r)
	})
}

func registerSnoozeReminderTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"snooze_reminder",
		mcp.WithDescription("Push a reminder back from now."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Reminder identifier."),
		),
		mcp.WithNumber("minutes",
			mcp.Description("Minutes to snooze; defaults to the snooze setting."),
			mcp.Min(1),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		d := time.Duration(request.GetInt("minutes", 0)) * time.Minute
		r, err := svc.SnoozeReminder(ctx, id, d)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(r)
	})
}

func registerDeleteReminderTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_reminder",
		mcp.WithDescription("Delete a reminder and cancel its alarm."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Reminder identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteReminder(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": id})
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
