package orchestrator

import (
	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
)

// Kind tags what the engine decided to do with a message.
type Kind string

const (
	// KindNewQuery means the message should be processed as a fresh query,
	// possibly with a resolved reference attached as context.
	KindNewQuery Kind = "new_query"
	// KindResolved means the message answered a pending clarification and
	// picked one of the offered options.
	KindResolved Kind = "resolved"
	// KindAskClarification means the engine needs the user to choose before
	// it can proceed.
	KindAskClarification Kind = "ask_clarification"
)

// Request is one incoming utterance plus whatever the search pipeline
// already knows about it. Options are supplied when a search produced
// several plausible result groups; OriginalQuery is the query that
// produced them.
type Request struct {
	SessionID     string             `json:"session_id"`
	Message       string             `json:"message"`
	Options       []selection.Option `json:"options,omitempty"`
	OriginalQuery string             `json:"original_query,omitempty"`
}

// Outcome is the engine's decision for one message. Exactly the fields
// relevant to Kind are populated.
type Outcome struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query,omitempty"`

	// Reference resolution context for new queries.
	Intent    *reference.Intent `json:"intent,omitempty"`
	Reference *session.Turn     `json:"reference,omitempty"`

	// Selection details for resolved clarifications.
	Option      *selection.Option   `json:"option,omitempty"`
	Index       *int                `json:"index,omitempty"`
	Strategy    *selection.Strategy `json:"strategy,omitempty"`
	MatchedText string              `json:"matched_text,omitempty"`
	Confidence  float64             `json:"confidence,omitempty"`

	// Clarification question plus the options it offers.
	Question   string             `json:"question,omitempty"`
	Options    []selection.Option `json:"options,omitempty"`
	StateSaved bool               `json:"state_saved,omitempty"`
}
