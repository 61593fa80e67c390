package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerDocumentResource(srv, svc)
	registerRemindersResource(srv, svc)
	registerCategoryTemplate(srv, svc)
}

func registerDocumentResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"quickmsg://document",
		"Template Document",
		mcp.WithResourceDescription("Every category and message, as stored."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := svc.Document(ctx)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, doc)
	})
}

func registerRemindersResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"quickmsg://reminders",
		"Reminders",
		mcp.WithResourceDescription("All reminders ordered by due time."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		items, err := svc.ListReminders(ctx, "")
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"reminders": items,
			"count":     len(items),
		})
	})
}

func registerCategoryTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"quickmsg://categories/{id}",
		"Category Messages",
		mcp.WithTemplateDescription("Messages of one category in order."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id, _ := request.Params.Arguments["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("category id is required")
		}
		msgs, err := svc.ListMessages(ctx, id)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"categoryId": id,
			"messages":   msgs,
			"count":      len(msgs),
		})
	})
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
