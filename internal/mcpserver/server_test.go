package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/navigation"
	"github.com/venapictures/vena/internal/testutil"
)

func testServer(t *testing.T) (*Server, *console.Console) {
	t.Helper()
	c, _ := testutil.Console(t)
	return New(c, "test"), c
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_collection":
		result, err = srv.listCollection(ctx, req)
	case "get_record":
		result, err = srv.getRecord(ctx, req)
	case "add_lead":
		result, err = srv.addLead(ctx, req)
	case "settle_payments":
		result, err = srv.settlePayments(ctx, req)
	case "navigate":
		result, err = srv.navigate(ctx, req)
	case "show_notification":
		result, err = srv.showNotification(ctx, req)
	case "get_screen":
		result, err = srv.getScreen(ctx, req)
	case "get_console_guide":
		result, err = srv.getConsoleGuide(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListCollection(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_collection", map[string]any{"name": "team-members"})
	if r.IsError {
		t.Fatalf("list failed: %s", resultText(r))
	}
	var members []models.TeamMember
	if err := json.Unmarshal([]byte(resultText(r)), &members); err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}

	r = callTool(t, srv, "list_collection", map[string]any{"name": "invoices"})
	if !r.IsError {
		t.Error("expected error for unknown collection")
	}
}

func TestGetRecord(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_record", map[string]any{"collection": "clients", "id": "CLI001"})
	if r.IsError || !strings.Contains(resultText(r), `"id": "CLI001"`) {
		t.Errorf("get = %q", resultText(r))
	}
	r = callTool(t, srv, "get_record", map[string]any{"collection": "clients", "id": "CLI404"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
	r = callTool(t, srv, "get_record", map[string]any{"collection": "clients"})
	if !r.IsError {
		t.Error("expected error for missing id")
	}
}

func TestAddLead(t *testing.T) {
	srv, c := testServer(t)

	r := callTool(t, srv, "add_lead", map[string]any{"name": "Bima", "contact_channel": "WhatsApp"})
	if r.IsError {
		t.Fatalf("add failed: %s", resultText(r))
	}
	if got := c.Store.Leads().Get()[0].Name; got != "Bima" {
		t.Errorf("newest lead = %q, want Bima", got)
	}
}

func TestSettlePayments(t *testing.T) {
	srv, c := testServer(t)

	r := callTool(t, srv, "settle_payments", map[string]any{
		"team_member_id": "TM002",
		"payment_ids":    []any{"TPP001"},
	})
	if !r.IsError {
		t.Fatal("settling another member's obligation should fail")
	}

	r = callTool(t, srv, "settle_payments", map[string]any{
		"team_member_id": "TM002",
		"payment_ids":    []any{"TPP002"},
		"pocket_id":      "PKT002",
	})
	if r.IsError {
		t.Fatalf("settle failed: %s", resultText(r))
	}
	for _, p := range c.Store.TeamProjectPayments().Get() {
		if p.ID == "TPP002" && p.Status != models.ObligationPaid {
			t.Errorf("TPP002 status = %s", p.Status)
		}
	}
}

func TestNavigate(t *testing.T) {
	srv, c := testServer(t)

	r := callTool(t, srv, "navigate", map[string]any{
		"view": "Proyek", "kind": "VIEW_PROJECT_DETAILS", "entity_id": "PRJ002", "tab": "payment",
	})
	if r.IsError {
		t.Fatalf("navigate failed: %s", resultText(r))
	}
	var st navigation.State
	if err := json.Unmarshal([]byte(resultText(r)), &st); err != nil {
		t.Fatal(err)
	}
	if st.ActiveView != models.ViewProjects || st.Pending == nil {
		t.Errorf("state = %+v", st)
	}
	if p, ok := c.Nav.Pending(models.ViewProjects); !ok || p.Action.Tab != models.TabPayment {
		t.Errorf("pending = %+v, %v", p, ok)
	}

	r = callTool(t, srv, "navigate", map[string]any{"view": "Proyek", "kind": "X", "tab": "gallery"})
	if !r.IsError {
		t.Error("expected error for unknown tab")
	}
}

func TestShowNotificationAndScreen(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "show_notification", map[string]any{"message": "Halo tim", "duration_ms": 60000.0})
	if r.IsError {
		t.Fatalf("show failed: %s", resultText(r))
	}

	r = callTool(t, srv, "get_screen", map[string]any{})
	if !strings.Contains(resultText(r), `"screen": "login"`) {
		t.Errorf("screen = %s", resultText(r))
	}
}

func TestConsoleGuide(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_console_guide", map[string]any{})
	text := resultText(r)
	for _, v := range models.Views {
		if !strings.Contains(text, string(v)) {
			t.Errorf("guide does not mention view %s", v)
		}
	}
}
