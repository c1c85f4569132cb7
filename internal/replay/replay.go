package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/progress"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
)

// Event is one line of a replay script: either a user message to run
// through the engine or a completed turn to record into history.
type Event struct {
	Session       string             `json:"session"`
	Message       string             `json:"message,omitempty"`
	Options       []selection.Option `json:"options,omitempty"`
	OriginalQuery string             `json:"original_query,omitempty"`
	Record        *RecordedTurn      `json:"record,omitempty"`
}

// RecordedTurn is a query/response pair recorded as session history.
type RecordedTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Stats tallies what a replay run produced.
type Stats struct {
	Events         int
	Recorded       int
	NewQueries     int
	Resolved       int
	Clarifications int
	Failures       int
}

func (s *Stats) add(o Stats) {
	s.Events += o.Events
	s.Recorded += o.Recorded
	s.NewQueries += o.NewQueries
	s.Resolved += o.Resolved
	s.Clarifications += o.Clarifications
	s.Failures += o.Failures
}

// Runner replays scripted conversations through the resolution engine.
// Scripts are JSONL files, one event per line.
type Runner struct {
	engine *orchestrator.Engine
	rec    *session.Recorder
	log    zerolog.Logger
}

// NewRunner creates a runner over the given engine and recorder.
func NewRunner(engine *orchestrator.Engine, rec *session.Recorder, log zerolog.Logger) *Runner {
	return &Runner{engine: engine, rec: rec, log: log}
}

// FindScripts returns all .jsonl scripts under root in walk order.
func FindScripts(root string) ([]string, error) {
	var scripts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.PathMatch("**/*.jsonl", filepath.ToSlash(rel)); ok {
			scripts = append(scripts, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s for scripts: %w", root, err)
	}
	return scripts, nil
}

// Run replays a single script file. Event failures are counted and logged
// but do not stop the run; only an unreadable script is an error.
func (r *Runner) Run(ctx context.Context, path string, reporter progress.Reporter) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("opening script %s: %w", path, err)
	}
	defer f.Close()

	var stats Stats
	events := r.readEvents(f, path, &stats)

	reporter.Start(len(events))
	defer reporter.Finish()

	for i, ev := range events {
		label, err := r.apply(ctx, ev)
		if err != nil {
			stats.Failures++
			r.log.Warn().Err(err).Str("script", path).Str("session", ev.Session).Msg("replay event failed")
			reporter.Update(i+1, fmt.Sprintf("%s: failed", ev.Session))
			continue
		}

		switch label {
		case "recorded":
			stats.Recorded++
		case string(orchestrator.KindNewQuery):
			stats.NewQueries++
		case string(orchestrator.KindResolved):
			stats.Resolved++
		case string(orchestrator.KindAskClarification):
			stats.Clarifications++
		}
		reporter.Update(i+1, fmt.Sprintf("%s: %s", ev.Session, label))
	}

	return stats, nil
}

// RunDir replays every script under root, aggregating stats across them.
func (r *Runner) RunDir(ctx context.Context, root string, reporter progress.Reporter) (Stats, error) {
	scripts, err := FindScripts(root)
	if err != nil {
		return Stats{}, err
	}
	if len(scripts) == 0 {
		return Stats{}, fmt.Errorf("no replay scripts under %s", root)
	}

	var total Stats
	for _, script := range scripts {
		stats, err := r.Run(ctx, script, reporter)
		if err != nil {
			return total, err
		}
		total.add(stats)
	}
	return total, nil
}

// readEvents parses the script line by line. Unparseable or incomplete
// lines count as failures; every syntactically counted line bumps Events.
func (r *Runner) readEvents(src io.Reader, path string, stats *Stats) []Event {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		stats.Events++

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			stats.Failures++
			r.log.Warn().Err(err).Str("script", path).Int("line", line).Msg("unparseable replay event")
			continue
		}
		if err := validate(ev); err != nil {
			stats.Failures++
			r.log.Warn().Err(err).Str("script", path).Int("line", line).Msg("invalid replay event")
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		stats.Failures++
		r.log.Warn().Err(err).Str("script", path).Msg("reading replay script")
	}

	return events
}

func validate(ev Event) error {
	if ev.Session == "" {
		return errors.New("event is missing a session")
	}
	if ev.Message == "" && ev.Record == nil {
		return errors.New("event needs a message or a record")
	}
	if ev.Message != "" && ev.Record != nil {
		return errors.New("event has both a message and a record")
	}
	if ev.Record != nil && (ev.Record.Query == "" || ev.Record.Response == "") {
		return errors.New("recorded turn needs both query and response")
	}
	return nil
}

// apply executes one event and says what it became.
func (r *Runner) apply(ctx context.Context, ev Event) (string, error) {
	if ev.Record != nil {
		if _, err := r.rec.Record(ctx, ev.Session, ev.Record.Query, ev.Record.Response, nil); err != nil {
			return "", err
		}
		return "recorded", nil
	}

	outcome, err := r.engine.Handle(ctx, orchestrator.Request{
		SessionID:     ev.Session,
		Message:       ev.Message,
		Options:       ev.Options,
		OriginalQuery: ev.OriginalQuery,
	})
	if err != nil {
		return "", err
	}
	return string(outcome.Kind), nil
}
