package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
)

// handleHandleMessage runs a message through the orchestrator and returns
// the outcome as JSON.
func (s *Server) handleHandleMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	var options []selection.Option
	if raw := request.GetString("options", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("options is not a JSON array of objects: %v", err)), nil
		}
	}

	outcome, err := s.deps.Engine.Handle(ctx, orchestrator.Request{
		SessionID:     sessionID,
		Message:       message,
		Options:       options,
		OriginalQuery: request.GetString("original_query", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("handling message failed: %v", err)), nil
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding outcome: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleResolveSelection matches a reply against presented options.
func (s *Server) handleResolveSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input"), nil
	}
	rawOptions, err := request.RequireString("options")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: options"), nil
	}

	var options []selection.Option
	if err := json.Unmarshal([]byte(rawOptions), &options); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("options is not a JSON array of objects: %v", err)), nil
	}

	field := request.GetString("display_field", s.deps.DisplayField)
	resolver := selection.NewResolver(s.deps.Tables, field)
	result := resolver.Resolve(input, options)

	return mcp.NewToolResultText(formatSelectionResult(result, options, field)), nil
}

// handleDetectReference inspects a message for back-reference signals.
func (s *Server) handleDetectReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	intent := s.deps.Detector.Detect(query)
	if intent == nil {
		return mcp.NewToolResultText("No reference signal detected; treat the message as a fresh query."), nil
	}

	data, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding intent: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleAddTurn records a completed exchange into session history.
func (s *Server) handleAddTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	response, err := request.RequireString("response")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: response"), nil
	}

	turn, err := s.deps.Recorder.Record(ctx, sessionID, query, response, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recording turn failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Recorded turn %d of session %s.", turn.TurnNumber, sessionID)), nil
}

// handleListTurns returns the session history in order.
func (s *Server) handleListTurns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	limit := request.GetInt("limit", 0)
	turns, err := s.deps.Recorder.Turns().List(ctx, sessionID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing turns failed: %v", err)), nil
	}

	if len(turns) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No turns recorded for session %s.", sessionID)), nil
	}
	return mcp.NewToolResultText(formatTurns(sessionID, turns)), nil
}

// handleGetSessionState reports the pending clarification, if any.
func (s *Server) handleGetSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	state, err := s.deps.States.Get(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading state failed: %v", err)), nil
	}
	if state == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No pending clarification for session %s.", sessionID)), nil
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleClearSessionState abandons the pending clarification. Clearing an
// absent state succeeds.
func (s *Server) handleClearSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	if err := s.deps.States.Clear(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clearing state failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Cleared pending clarification for session %s.", sessionID)), nil
}

// formatSelectionResult converts a resolution into text an agent can relay.
func formatSelectionResult(result selection.Result, options []selection.Option, field string) string {
	if !result.Matched() {
		return "No option matched. The reply may be a new query rather than a selection."
	}

	var sb strings.Builder
	idx := *result.Index

	label := fmt.Sprintf("option %d", idx+1)
	if display, ok := options[idx].Display(field); ok {
		label = fmt.Sprintf("%q", display)
	}
	sb.WriteString(fmt.Sprintf("Matched %s (option %d of %d).\n", label, idx+1, len(options)))
	sb.WriteString(fmt.Sprintf("Strategy: %s, confidence %.0f%%\n", *result.Strategy, result.Confidence*100))
	if result.MatchedText != "" {
		sb.WriteString(fmt.Sprintf("Matched text: %q\n", result.MatchedText))
	}
	if result.SkippedOptions > 0 {
		sb.WriteString(fmt.Sprintf("Skipped %d option(s) missing the %q field.\n", result.SkippedOptions, field))
	}

	return sb.String()
}

// formatTurns lays out session history for agent consumption.
func formatTurns(sessionID string, turns []session.Turn) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session %s has %d turn(s):\n", sessionID, len(turns)))

	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("\n--- Turn %d (%s) ---\n", t.TurnNumber, t.CreatedAt.Format("2006-01-02 15:04:05")))
		sb.WriteString(fmt.Sprintf("Q: %s\n", t.Query))
		sb.WriteString(fmt.Sprintf("A: %s\n", snippet(t.Response, 200)))
	}

	return sb.String()
}

// snippet truncates s to at most max runes for display.
func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
