package selection

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// RegisterRoutes mounts the selection resolution API.
func RegisterRoutes(r chi.Router, tables *vocab.Tables, defaultDisplayField string) {
	r.Post("/api/resolve", handleResolve(tables, defaultDisplayField))
}

type resolveRequest struct {
	Input        string   `json:"input"`
	Options      []Option `json:"options"`
	DisplayField string   `json:"display_field,omitempty"`
}

func handleResolve(tables *vocab.Tables, defaultDisplayField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		field := req.DisplayField
		if field == "" {
			field = defaultDisplayField
		}
		resolver := NewResolver(tables, field)
		result := resolver.Resolve(req.Input, req.Options)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
