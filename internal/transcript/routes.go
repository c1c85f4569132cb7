package transcript

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the transcript export API.
func RegisterRoutes(r chi.Router, exporter *Exporter) {
	r.Get("/api/sessions/{sessionID}/transcript", handleTranscript(exporter))
}

func handleTranscript(exporter *Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := exporter.Export(r.Context(), chi.URLParam(r, "sessionID"))
		if errors.Is(err, ErrNoTurns) {
			http.Error(w, `{"error":"session has no recorded turns"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}
