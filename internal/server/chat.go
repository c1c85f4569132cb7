package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type          string             `json:"type"`       // "message", "record", or "clear"
	SessionID     string             `json:"session_id"` // empty for new sessions
	Content       string             `json:"content"`
	Response      string             `json:"response,omitempty"`       // for "record"
	Options       []selection.Option `json:"options,omitempty"`        // for "message"
	OriginalQuery string             `json:"original_query,omitempty"` // query the options answer
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string                `json:"type"` // "outcome", "recorded", "cleared", or "error"
	SessionID string                `json:"session_id"`
	Outcome   *orchestrator.Outcome `json:"outcome,omitempty"`
	Turn      *session.Turn         `json:"turn,omitempty"`
	Content   string                `json:"content,omitempty"`
}

// handleWebSocket runs a chat console over one connection. The host sends
// user messages for resolution and records completed turns back so that
// later references can find them.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.deps.Log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "message":
			s.handleChatMessage(conn, r, req)
		case "record":
			s.handleChatRecord(conn, r, req)
		case "clear":
			s.handleChatClear(conn, r, req)
		default:
			s.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleChatMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	if req.Content == "" {
		s.sendError(conn, req.SessionID, "content is required")
		return
	}

	ctx := r.Context()
	sessionID := req.SessionID

	// Create a new session if needed.
	if sessionID == "" {
		sess, err := s.deps.Recorder.Turns().CreateSession(ctx)
		if err != nil {
			s.sendError(conn, "", "failed to create session: "+err.Error())
			return
		}
		sessionID = sess.ID
	}

	outcome, err := s.deps.Engine.Handle(ctx, orchestrator.Request{
		SessionID:     sessionID,
		Message:       req.Content,
		Options:       req.Options,
		OriginalQuery: req.OriginalQuery,
	})
	if err != nil {
		s.sendError(conn, sessionID, "processing failed: "+err.Error())
		return
	}

	s.sendResponse(conn, chatResponse{
		Type:      "outcome",
		SessionID: sessionID,
		Outcome:   &outcome,
	})
}

func (s *Server) handleChatRecord(conn *websocket.Conn, r *http.Request, req chatRequest) {
	if req.SessionID == "" {
		s.sendError(conn, "", "session_id is required to record a turn")
		return
	}
	if req.Content == "" || req.Response == "" {
		s.sendError(conn, req.SessionID, "content and response are required to record a turn")
		return
	}

	turn, err := s.deps.Recorder.Record(r.Context(), req.SessionID, req.Content, req.Response, nil)
	if err != nil {
		s.sendError(conn, req.SessionID, "recording failed: "+err.Error())
		return
	}

	s.sendResponse(conn, chatResponse{
		Type:      "recorded",
		SessionID: req.SessionID,
		Turn:      turn,
	})
}

func (s *Server) handleChatClear(conn *websocket.Conn, r *http.Request, req chatRequest) {
	if req.SessionID == "" {
		s.sendError(conn, "", "session_id is required")
		return
	}

	if err := s.deps.States.Clear(r.Context(), req.SessionID); err != nil {
		s.sendError(conn, req.SessionID, "clearing failed: "+err.Error())
		return
	}

	s.sendResponse(conn, chatResponse{
		Type:      "cleared",
		SessionID: req.SessionID,
	})
}

func (s *Server) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.deps.Log.Warn().Err(err).Msg("websocket write")
	}
}

func (s *Server) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		s.deps.Log.Warn().Err(err).Msg("websocket write error")
	}
}
