package session

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the session and clarification state API. State is
// readable for monitoring and debugging; reads go through the TTL store, so
// an expired state reads as absent here too.
func RegisterRoutes(r chi.Router, rec *Recorder, states *StateStore) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(rec))
		r.Delete("/{sessionID}", handleDeleteSession(rec, states))
		r.Get("/{sessionID}/turns", handleListTurns(rec))
		r.Post("/{sessionID}/turns", handleAppendTurn(rec))
		r.Get("/{sessionID}/state", handleGetState(states))
		r.Delete("/{sessionID}/state", handleClearState(states))
	})
}

func handleCreateSession(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := rec.Turns().CreateSession(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(sess)
	}
}

func handleDeleteSession(rec *Recorder, states *StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if err := rec.Delete(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		// Pending state dies with the session.
		_ = states.Clear(r.Context(), id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleListTurns(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		list, err := rec.Turns().List(r.Context(), chi.URLParam(r, "sessionID"), limit)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []Turn{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

type appendTurnRequest struct {
	Query    string            `json:"query"`
	Response string            `json:"response"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func handleAppendTurn(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appendTurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Query == "" || req.Response == "" {
			http.Error(w, `{"error":"query and response are required"}`, http.StatusBadRequest)
			return
		}

		turn, err := rec.Record(r.Context(), chi.URLParam(r, "sessionID"), req.Query, req.Response, req.Metadata)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(turn)
	}
}

func handleGetState(states *StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := states.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if state == nil {
			http.Error(w, `{"error":"no pending clarification"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	}
}

func handleClearState(states *StateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := states.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}
}
