package orchestrator

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anaphor-dev/anaphor/internal/session"
)

// RegisterRoutes mounts the conversational message API.
func RegisterRoutes(r chi.Router, engine *Engine, turns *session.TurnStore) {
	r.Post("/api/messages", handleMessage(engine, turns))
}

type messageResponse struct {
	SessionID string  `json:"session_id"`
	Outcome   Outcome `json:"outcome"`
}

func handleMessage(engine *Engine, turns *session.TurnStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		// An empty session id starts a new conversation.
		if req.SessionID == "" {
			sess, err := turns.CreateSession(r.Context())
			if err != nil {
				http.Error(w, `{"error":"failed to create session"}`, http.StatusInternalServerError)
				return
			}
			req.SessionID = sess.ID
		}

		outcome, err := engine.Handle(r.Context(), req)
		if err != nil {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponse{SessionID: req.SessionID, Outcome: outcome})
	}
}
