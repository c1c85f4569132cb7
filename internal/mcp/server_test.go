package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/clarify"
	"github.com/anaphor-dev/anaphor/internal/db"
	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	turns := session.NewTurnStore(database)
	states := session.NewStateStore(session.NewSQLiteBackend(database), time.Minute)
	tables := vocab.Default()
	detector := reference.NewDetector(tables, 0)

	engine := orchestrator.NewEngine(orchestrator.Deps{
		Detector:  detector,
		Resolver:  reference.NewResolver(nil, reference.ResolverConfig{}, zerolog.Nop()),
		Clarifier: clarify.NewEngine(selection.NewResolver(tables, selection.DefaultDisplayField), 0),
		Turns:     turns,
		States:    states,
		Log:       zerolog.Nop(),
	})

	return NewServer(Deps{
		Engine:   engine,
		Recorder: session.NewRecorder(turns, nil, zerolog.Nop()),
		States:   states,
		Detector: detector,
		Tables:   tables,
		Log:      zerolog.Nop(),
	})
}

func callTool(arguments map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = arguments
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"handle_message", handleMessageTool, "handle_message"},
		{"resolve_selection", resolveSelectionTool, "resolve_selection"},
		{"detect_reference", detectReferenceTool, "detect_reference"},
		{"add_turn", addTurnTool, "add_turn"},
		{"list_turns", listTurnsTool, "list_turns"},
		{"get_session_state", getSessionStateTool, "get_session_state"},
		{"clear_session_state", clearSessionStateTool, "clear_session_state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)

	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.deps.DisplayField != selection.DefaultDisplayField {
		t.Errorf("display field = %q, want default", srv.deps.DisplayField)
	}
}

func TestHandleResolveSelection(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	optionsJSON := `[{"name":"Billing"},{"name":"Checkout"},{"name":"Inventory"}]`

	t.Run("numeric reply", func(t *testing.T) {
		result, err := srv.handleResolveSelection(ctx, callTool(map[string]any{
			"input":   "2",
			"options": optionsJSON,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, `"Checkout"`) || !strings.Contains(text, "option 2 of 3") {
			t.Errorf("unexpected result text:\n%s", text)
		}
	})

	t.Run("tagalog ordinal", func(t *testing.T) {
		result, err := srv.handleResolveSelection(ctx, callTool(map[string]any{
			"input":   "yung una",
			"options": optionsJSON,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(resultText(t, result), `"Billing"`) {
			t.Errorf("expected first option, got:\n%s", resultText(t, result))
		}
	})

	t.Run("no match", func(t *testing.T) {
		result, err := srv.handleResolveSelection(ctx, callTool(map[string]any{
			"input":   "how is the weather",
			"options": optionsJSON,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(resultText(t, result), "No option matched") {
			t.Errorf("unexpected result text:\n%s", resultText(t, result))
		}
	})

	t.Run("missing input", func(t *testing.T) {
		result, err := srv.handleResolveSelection(ctx, callTool(map[string]any{
			"options": optionsJSON,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing input")
		}
	})

	t.Run("malformed options", func(t *testing.T) {
		result, err := srv.handleResolveSelection(ctx, callTool(map[string]any{
			"input":   "1",
			"options": "{not json",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for malformed options")
		}
	})
}

func TestHandleDetectReference(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("ordinal reference", func(t *testing.T) {
		result, err := srv.handleDetectReference(ctx, callTool(map[string]any{
			"query": "what about the second one",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "ordinal") {
			t.Errorf("expected ordinal intent, got:\n%s", text)
		}
	})

	t.Run("no signal", func(t *testing.T) {
		result, err := srv.handleDetectReference(ctx, callTool(map[string]any{
			"query": "hi",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(resultText(t, result), "No reference signal") {
			t.Errorf("unexpected result text:\n%s", resultText(t, result))
		}
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := srv.handleDetectReference(ctx, callTool(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleAddTurnAndListTurns(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleAddTurn(ctx, callTool(map[string]any{
		"session_id": "s1",
		"query":      "deploy status",
		"response":   "All green.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Recorded turn 1") {
		t.Errorf("unexpected result text:\n%s", resultText(t, result))
	}

	result, err = srv.handleListTurns(ctx, callTool(map[string]any{"session_id": "s1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "deploy status") || !strings.Contains(text, "Turn 1") {
		t.Errorf("unexpected turn listing:\n%s", text)
	}

	result, err = srv.handleListTurns(ctx, callTool(map[string]any{"session_id": "empty"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "No turns recorded") {
		t.Errorf("unexpected result text:\n%s", resultText(t, result))
	}
}

func TestHandleMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	// Ambiguous options ask for clarification.
	result, err := srv.handleHandleMessage(ctx, callTool(map[string]any{
		"session_id": "s1",
		"message":    "open the settings",
		"options":    `[{"name":"User Settings"},{"name":"System Settings"}]`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if !strings.Contains(resultText(t, result), "ask_clarification") {
		t.Errorf("expected ask_clarification outcome:\n%s", resultText(t, result))
	}

	// State is pending now.
	result, err = srv.handleGetSessionState(ctx, callTool(map[string]any{"session_id": "s1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "open the settings") {
		t.Errorf("expected pending state with the original query:\n%s", resultText(t, result))
	}

	// The numbered answer resolves.
	result, err = srv.handleHandleMessage(ctx, callTool(map[string]any{
		"session_id": "s1",
		"message":    "2",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "resolved") || !strings.Contains(text, "System Settings") {
		t.Errorf("expected resolved outcome:\n%s", text)
	}

	// And the state is gone.
	result, err = srv.handleGetSessionState(ctx, callTool(map[string]any{"session_id": "s1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "No pending clarification") {
		t.Errorf("expected cleared state:\n%s", resultText(t, result))
	}
}

func TestClearSessionStateIdempotent(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := srv.handleClearSessionState(ctx, callTool(map[string]any{"session_id": "s1"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("clear should succeed even with nothing pending: %v", result.Content)
		}
	}
}
