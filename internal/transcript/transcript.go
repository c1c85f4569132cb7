package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/anaphor-dev/anaphor/internal/session"
)

// ErrNoTurns reports an export of a session with no recorded history.
var ErrNoTurns = errors.New("no recorded turns")

// Exporter renders session histories as standalone HTML transcripts.
// Assistant responses are treated as markdown, so code blocks and tables
// in them come out highlighted. User queries are rendered as plain text,
// never as markdown, so nothing a user typed can restructure the page.
type Exporter struct {
	turns *session.TurnStore
	md    goldmark.Markdown
	tmpl  *template.Template
}

// NewExporter creates an exporter over the given turn store.
func NewExporter(turns *session.TurnStore) (*Exporter, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	tmpl, err := template.New("transcript").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing transcript template: %w", err)
	}

	return &Exporter{turns: turns, md: md, tmpl: tmpl}, nil
}

// turnView is one rendered turn. Query stays a plain string so the
// template escapes it; Response is already-rendered markdown.
type turnView struct {
	Number   int
	Recorded string
	Query    string
	Response template.HTML
}

// pageData holds the data passed to the HTML template.
type pageData struct {
	Title     string
	SessionID string
	TurnCount int
	Exported  string
	Turns     []turnView
}

// Export renders the full history of a session as a self-contained HTML
// page. Returns ErrNoTurns when the session has no history.
func (e *Exporter) Export(ctx context.Context, sessionID string) ([]byte, error) {
	turns, err := e.turns.List(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading session turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNoTurns)
	}

	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		var body bytes.Buffer
		if err := e.md.Convert([]byte(t.Response), &body); err != nil {
			return nil, fmt.Errorf("rendering turn %d response: %w", t.TurnNumber, err)
		}
		views = append(views, turnView{
			Number:   t.TurnNumber,
			Recorded: t.CreatedAt.Format("2006-01-02 15:04:05 MST"),
			Query:    t.Query,
			Response: template.HTML(body.String()),
		})
	}

	data := pageData{
		Title:     "Session " + shortID(sessionID),
		SessionID: sessionID,
		TurnCount: len(turns),
		Exported:  time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		Turns:     views,
	}

	var page bytes.Buffer
	if err := e.tmpl.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("rendering transcript page: %w", err)
	}
	return page.Bytes(), nil
}

// ExportToFile writes the transcript HTML to the given path.
func (e *Exporter) ExportToFile(ctx context.Context, sessionID, path string) error {
	data, err := e.Export(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing transcript to %s: %w", path, err)
	}
	return nil
}

// shortID trims a UUID down to its leading group for page titles.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
