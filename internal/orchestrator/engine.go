package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/clarify"
	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/session"
)

// maxOffered caps how many candidates a clarification question lists.
const maxOffered = 5

// Deps are the collaborators an Engine composes per message.
type Deps struct {
	Detector  *reference.Detector
	Resolver  *reference.Resolver
	Clarifier *clarify.Engine
	Turns     *session.TurnStore
	States    *session.StateStore
	Window    int
	Log       zerolog.Logger
}

// Engine is the top-level entry point. It is the only component that knows
// whether a message is a fresh query or a reply to a pending clarification.
type Engine struct {
	detector  *reference.Detector
	resolver  *reference.Resolver
	clarifier *clarify.Engine
	turns     *session.TurnStore
	states    *session.StateStore
	window    int
	log       zerolog.Logger
}

// NewEngine creates an orchestrator. A non-positive window falls back to
// session.DefaultWindow.
func NewEngine(d Deps) *Engine {
	if d.Window <= 0 {
		d.Window = session.DefaultWindow
	}
	return &Engine{
		detector:  d.Detector,
		resolver:  d.Resolver,
		clarifier: d.Clarifier,
		turns:     d.Turns,
		states:    d.States,
		window:    d.Window,
		log:       d.Log,
	}
}

// Handle decides what one message means for its session. Store failures
// never surface to the user: the engine fails open and treats the message
// as a fresh query. The returned error covers caller mistakes only.
func (e *Engine) Handle(ctx context.Context, req Request) (Outcome, error) {
	message := strings.TrimSpace(req.Message)
	if req.SessionID == "" {
		return Outcome{}, fmt.Errorf("session id is required")
	}
	if message == "" {
		return Outcome{}, fmt.Errorf("message is required")
	}

	state, err := e.states.Get(ctx, req.SessionID)
	if err != nil {
		e.log.Warn().Err(err).Str("session", req.SessionID).
			Msg("reading clarification state failed, treating message as new query")
		state = nil
	}
	if state != nil {
		return e.handleAnswer(ctx, req.SessionID, message, state), nil
	}

	// A single option is not ambiguous; the pipeline already has its
	// answer and the message flows through as a normal query.
	if len(req.Options) >= 2 {
		return e.askAboutOptions(ctx, req, message), nil
	}

	return e.handleQuery(ctx, req.SessionID, message), nil
}

// handleAnswer consumes a pending clarification. One question gets one
// answer: the state is cleared whether or not the reply picked anything,
// so a stale question can never trap a session in a re-ask loop.
func (e *Engine) handleAnswer(ctx context.Context, sessionID, message string, state *session.ClarificationState) Outcome {
	if err := e.states.Clear(ctx, sessionID); err != nil {
		e.log.Warn().Err(err).Str("session", sessionID).Msg("clearing clarification state failed")
	}

	opt, res := e.clarifier.ApplyAnswer(message, state.Options)
	if opt == nil {
		return Outcome{Kind: KindNewQuery, Query: message}
	}

	out := Outcome{
		Kind:        KindResolved,
		Query:       state.OriginalQuery,
		Option:      opt,
		Index:       res.Index,
		Strategy:    res.Strategy,
		MatchedText: res.MatchedText,
		Confidence:  res.Confidence,
	}
	if n, ok := clarify.TurnNumber(*opt); ok {
		turn, err := e.turns.Turn(ctx, sessionID, n)
		if err != nil {
			e.log.Warn().Err(err).Str("session", sessionID).Int("turn", n).
				Msg("loading referenced turn failed")
		} else {
			out.Reference = turn
		}
	}
	return out
}

// askAboutOptions surfaces a pipeline-supplied ambiguous result set as a
// question. The question is asked even when saving state fails; the
// caller sees StateSaved=false and the next message simply arrives with
// no pending state.
func (e *Engine) askAboutOptions(ctx context.Context, req Request, message string) Outcome {
	originalQuery := strings.TrimSpace(req.OriginalQuery)
	if originalQuery == "" {
		originalQuery = message
	}

	saved := true
	if err := e.states.Save(ctx, session.ClarificationState{
		SessionID:     req.SessionID,
		OriginalQuery: originalQuery,
		Options:       req.Options,
	}); err != nil {
		saved = false
		e.log.Warn().Err(err).Str("session", req.SessionID).Msg("saving clarification state failed")
	}

	return Outcome{
		Kind:       KindAskClarification,
		Query:      originalQuery,
		Question:   e.clarifier.QuestionForOptions(originalQuery, req.Options),
		Options:    req.Options,
		StateSaved: saved,
	}
}

// handleQuery resolves references in a fresh query against recent history.
// Every failure path degrades to a plain new-query outcome.
func (e *Engine) handleQuery(ctx context.Context, sessionID, message string) Outcome {
	out := Outcome{Kind: KindNewQuery, Query: message}

	intent := e.detector.Detect(message)
	if intent == nil {
		return out
	}
	out.Intent = intent

	history, err := e.turns.Window(ctx, sessionID, e.window)
	if err != nil {
		e.log.Warn().Err(err).Str("session", sessionID).
			Msg("loading history failed, skipping reference resolution")
		return out
	}
	if len(history) == 0 {
		return out
	}

	res := e.resolver.Resolve(ctx, intent, history)
	if res.Best == nil {
		return out
	}

	if !e.clarifier.NeedsClarification(res) {
		out.Reference = res.Best
		return out
	}
	if len(res.Candidates) < 2 {
		// A single uncertain candidate is not worth a question, and
		// attaching it would be a guess.
		return out
	}

	if len(res.Candidates) > maxOffered {
		res.Candidates = res.Candidates[:maxOffered]
	}
	opts := e.clarifier.TurnOptions(res.Candidates)

	saved := true
	if err := e.states.Save(ctx, session.ClarificationState{
		SessionID:     sessionID,
		OriginalQuery: message,
		Options:       opts,
	}); err != nil {
		saved = false
		e.log.Warn().Err(err).Str("session", sessionID).Msg("saving clarification state failed")
	}

	return Outcome{
		Kind:       KindAskClarification,
		Query:      message,
		Intent:     intent,
		Question:   e.clarifier.Question(res),
		Options:    opts,
		StateSaved: saved,
	}
}
