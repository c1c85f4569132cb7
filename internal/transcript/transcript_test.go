package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/anaphor-dev/anaphor/internal/db"
	"github.com/anaphor-dev/anaphor/internal/session"
)

func newTestExporter(t *testing.T) (*Exporter, *session.TurnStore) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	turns := session.NewTurnStore(database)
	exporter, err := NewExporter(turns)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	return exporter, turns
}

func TestExportRendersTurns(t *testing.T) {
	exporter, turns := newTestExporter(t)
	ctx := context.Background()

	if _, err := turns.Append(ctx, "s1", "how do I deploy the api", "Run `make deploy` from the repo root.", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := turns.Append(ctx, "s1", "show me the config", "```yaml\nport: 8080\n```", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	page, err := exporter.Export(ctx, "s1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	html := string(page)

	if !strings.Contains(html, "Turn 1") || !strings.Contains(html, "Turn 2") {
		t.Error("expected both turn headings in transcript")
	}
	if !strings.Contains(html, "<blockquote>") {
		t.Error("expected user queries rendered as blockquotes")
	}
	if !strings.Contains(html, "how do I deploy the api") {
		t.Error("expected query text in transcript")
	}
	if !strings.Contains(html, "<pre") {
		t.Error("expected fenced code block rendered as pre")
	}
	if !strings.Contains(html, "2 turns") {
		t.Error("expected turn count in page footer")
	}
}

func TestExportQueryMarkdownStaysInert(t *testing.T) {
	exporter, turns := newTestExporter(t)
	ctx := context.Background()

	// A heading marker inside a user query must not become a heading.
	if _, err := turns.Append(ctx, "s1", "# what does this do", "It starts the server.", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	page, err := exporter.Export(ctx, "s1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(string(page), "<h1 id=\"what-does-this-do\">") {
		t.Error("query markdown should be quoted, not promoted to a heading")
	}
}

func TestExportEmptySession(t *testing.T) {
	exporter, _ := newTestExporter(t)

	_, err := exporter.Export(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for session without turns")
	}
	if !strings.Contains(err.Error(), "no recorded turns") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExportToFile(t *testing.T) {
	exporter, turns := newTestExporter(t)
	ctx := context.Background()

	if _, err := turns.Append(ctx, "s1", "hello", "Hi there.", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	path := filepath.Join(t.TempDir(), "transcript.html")
	if err := exporter.ExportToFile(ctx, "s1", path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "<!DOCTYPE html>") {
		t.Error("expected a full HTML document on disk")
	}
}

func TestTranscriptRoute(t *testing.T) {
	exporter, turns := newTestExporter(t)
	ctx := context.Background()

	if _, err := turns.Append(ctx, "s1", "hello", "Hi there.", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, exporter)

	req := httptest.NewRequest("GET", "/api/sessions/s1/transcript", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}

	// Unknown session 404s.
	req = httptest.NewRequest("GET", "/api/sessions/nope/transcript", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
