// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the console to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/store"
)

// Server wraps the MCP server with console tools.
type Server struct {
	mcp *server.MCPServer
	c   *console.Console
}

// New creates a new MCP server with all console tools registered.
func New(c *console.Console, version string) *Server {
	s := &Server{c: c}

	s.mcp = server.NewMCPServer(
		"Vena",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_collection",
		mcp.WithDescription("Return every record of one collection as JSON. "+
			"Read the console guide (get_console_guide or vena://console-guide) for collection names."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Collection name, e.g. clients, projects, team-project-payments, profile")),
	), s.listCollection)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Return one record by id."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id, e.g. PRJ001")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("add_lead",
		mcp.WithDescription("Add a prospect. Leads are kept sorted by date, newest first."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Prospect name")),
		mcp.WithString("contact_channel", mcp.Description("How the prospect reached out, e.g. Instagram, WhatsApp")),
		mcp.WithString("location", mcp.Description("City or venue")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	), s.addLead)

	s.mcp.AddTool(mcp.NewTool("settle_payments",
		mcp.WithDescription("Pay out unpaid team obligations in one step: marks them Paid, "+
			"records the expense transaction and the payment record, and debits the pocket when given. "+
			"Nothing is written if any obligation is missing, already paid or belongs to another member."),
		mcp.WithString("team_member_id", mcp.Required(), mcp.Description("Team member id, e.g. TM001")),
		mcp.WithArray("payment_ids", mcp.Required(), mcp.WithStringItems(), mcp.Description("Team-project payment ids to settle")),
		mcp.WithString("record_id", mcp.Description("Existing payment record to extend instead of creating one")),
		mcp.WithString("pocket_id", mcp.Description("Pocket to debit")),
		mcp.WithString("method", mcp.Description("Payment method, e.g. Transfer Bank")),
	), s.settlePayments)

	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Switch the active view, optionally opening an entity in it."),
		mcp.WithString("view", mcp.Required(), mcp.Description("Target view"), mcp.Enum(viewNames()...)),
		mcp.WithString("kind", mcp.Description("Action kind, e.g. VIEW_PROJECT_DETAILS; omit for plain navigation")),
		mcp.WithString("entity_id", mcp.Description("Entity to open")),
		mcp.WithString("tab", mcp.Description("Detail tab"), mcp.Enum("info", "project", "payment", "invoice")),
	), s.navigate)

	s.mcp.AddTool(mcp.NewTool("show_notification",
		mcp.WithDescription("Show a transient message; it replaces any visible one."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message text")),
		mcp.WithNumber("duration_ms", mcp.Description("Visibility in milliseconds (default 3000)")),
	), s.showNotification)

	s.mcp.AddTool(mcp.NewTool("get_screen",
		mcp.WithDescription("Return the session screen, active view, pending action and visible notification."),
	), s.getScreen)

	s.mcp.AddTool(mcp.NewTool("get_console_guide",
		mcp.WithDescription("Return the guide to views, collections and navigation actions. Call this first."),
	), s.getConsoleGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Console Guide",
			mcp.WithResourceDescription("Views, collections and navigation actions of the console."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConsoleGuide,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.c.Collections().List(name)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(items)
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.c.Collections().Get(collection, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (s *Server) addLead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lead := s.c.Store.AddLead(models.Lead{
		Name:           name,
		ContactChannel: req.GetString("contact_channel", ""),
		Location:       req.GetString("location", ""),
		Notes:          req.GetString("notes", ""),
	})
	return jsonResult(lead)
}

func (s *Server) settlePayments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	member, err := req.RequireString("team_member_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := req.RequireStringSlice("payment_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.c.SettlePayments(store.Settlement{
		TeamMemberID: member,
		PaymentIDs:   ids,
		RecordID:     req.GetString("record_id", ""),
		PocketID:     req.GetString("pocket_id", ""),
		Method:       req.GetString("method", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

func (s *Server) navigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := req.RequireString("view")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var action *models.NavigationAction
	if kind := req.GetString("kind", ""); kind != "" {
		action = &models.NavigationAction{
			Kind:     kind,
			EntityID: req.GetString("entity_id", ""),
			Tab:      models.Tab(req.GetString("tab", "")),
		}
	}
	st, err := s.c.Nav.Navigate(models.ViewType(view), action)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

func (s *Server) showNotification(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := time.Duration(req.GetFloat("duration_ms", 0)) * time.Millisecond
	if _, err := s.c.ShowNotification(message, d); err != nil {
		return toolError(err), nil
	}
	n, _ := s.c.Notify.Current()
	return jsonResult(n)
}

func (s *Server) getScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.c.Screen())
}

func (s *Server) getConsoleGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ConsoleGuide), nil
}

func (s *Server) readConsoleGuide(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     ConsoleGuide,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns domain errors into tool errors the agent can act on.
func toolError(err error) *mcp.CallToolResult {
	var formErr *session.FormError
	switch {
	case errors.As(err, &formErr):
		return mcp.NewToolResultError(formErr.Message)
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func viewNames() []string {
	names := make([]string, len(models.Views))
	for i, v := range models.Views {
		names[i] = string(v)
	}
	return names
}
