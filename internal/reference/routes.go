package reference

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anaphor-dev/anaphor/internal/session"
)

// RegisterRoutes mounts the reference detection and resolution API.
func RegisterRoutes(r chi.Router, detector *Detector, resolver *Resolver, turns *session.TurnStore, window int) {
	r.Post("/api/detect", handleDetect(detector))
	r.Post("/api/reference", handleReference(detector, resolver, turns, window))
}

type detectRequest struct {
	Query string `json:"query"`
}

func handleDetect(detector *Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}

		// A nil intent encodes as null: no reference signal present.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(detector.Detect(req.Query))
	}
}

type referenceRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type referenceResponse struct {
	Intent     *Intent    `json:"intent"`
	Resolution Resolution `json:"resolution"`
}

func handleReference(detector *Detector, resolver *Resolver, turns *session.TurnStore, window int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req referenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.SessionID == "" || req.Query == "" {
			http.Error(w, `{"error":"session_id and query are required"}`, http.StatusBadRequest)
			return
		}

		resp := referenceResponse{Intent: detector.Detect(req.Query)}
		if resp.Intent != nil {
			history, err := turns.Window(r.Context(), req.SessionID, window)
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
				return
			}
			resp.Resolution = resolver.Resolve(r.Context(), resp.Intent, history)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
