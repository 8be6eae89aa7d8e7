package agent

import (
	"time"

	"github.com/hession/datamate/internal/llm"
)

// State orchestrator state during one question
type State int

const (
	StateIdle State = iota
	StateFiltering
	StateAwaitingModel
	StateDispatching
	StateReplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiltering:
		return "filtering"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateDispatching:
		return "dispatching"
	case StateReplying:
		return "replying"
	default:
		return "unknown"
	}
}

// Outcome how a question was answered
type Outcome string

const (
	OutcomeBlocked           Outcome = "blocked"
	OutcomeDirect            Outcome = "direct"
	OutcomeFallback          Outcome = "fallback"
	OutcomeTool              Outcome = "tool"
	OutcomeModelUnavailable  Outcome = "model_unavailable"
	OutcomeMalformedToolCall Outcome = "malformed_tool_call"
	OutcomeUnknownTool       Outcome = "unknown_tool"
	OutcomeDataUnavailable   Outcome = "data_unavailable"
	OutcomeFailed            Outcome = "failed"
)

// Turn one question and its reply
type Turn struct {
	Query    string        `json:"query"`
	Reply    string        `json:"reply"`
	Outcome  Outcome       `json:"outcome"`
	Tool     string        `json:"tool,omitempty"`
	Err      error         `json:"-"`
	Usage    llm.Usage     `json:"usage"`
	Duration time.Duration `json:"duration"`
}

func (t *Turn) finish(reply string, outcome Outcome, err error) {
	t.Reply = reply
	t.Outcome = outcome
	t.Err = err
}
