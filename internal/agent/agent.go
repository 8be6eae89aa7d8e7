package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hession/datamate/internal/config"
	"github.com/hession/datamate/internal/format"
	"github.com/hession/datamate/internal/llm"
	"github.com/hession/datamate/internal/metrics"
	"github.com/hession/datamate/internal/safety"
	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/tools"
	"github.com/rs/zerolog"
)

// Fixed replies
const (
	ReplyBlocked         = "Sorry, I cannot perform dangerous operations for your safety."
	ReplyUnknownTool     = "Unknown tool requested."
	ReplyFailure         = "Sorry, something went wrong while answering your question. Please try again."
	ReplyDataUnavailable = "Sorry, the sales data is unavailable right now. Please try again later."
	ReplyDontKnow        = "Sorry, I don't know the answer to that yet."
)

const (
	// DefaultTimeout bounds one chat completion call
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens bounds the model output
	DefaultMaxTokens = 128
)

var (
	ErrBlockedInput      = errors.New("blocked input")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrMalformedToolCall = errors.New("malformed tool call")
	ErrUnknownTool       = tools.ErrUnknownTool
	ErrDataUnavailable   = store.ErrDataUnavailable
)

// Invoker executes a decoded tool call
type Invoker interface {
	Invoke(ctx context.Context, args tools.Args) (tools.Result, error)
}

// Agent answers one question per call. It keeps no per-question state and
// is safe for concurrent use.
type Agent struct {
	client       llm.Client
	registry     *tools.Registry
	invoker      Invoker
	filter       *safety.Filter
	llmTools     []llm.Tool
	systemPrompt string
	maxTokens    int
	timeout      time.Duration
	log          zerolog.Logger
	metrics      *metrics.Metrics

	stateHandler    func(query string, state State)
	toolCallHandler func(name string, args tools.Args, reply string, err error)
}

// Option agent configuration option
type Option func(*Agent)

// WithSystemPrompt sets the instruction sent with every question
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxTokens bounds the model output
func WithMaxTokens(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithTimeout bounds each model call
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(a *Agent) {
		a.log = log
	}
}

// WithMetrics records turns, tool calls and model latency
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithStateHandler observes state transitions
func WithStateHandler(handler func(query string, state State)) Option {
	return func(a *Agent) {
		a.stateHandler = handler
	}
}

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler func(name string, args tools.Args, reply string, err error)) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// New creates a new Agent instance. The tool catalog is captured once.
func New(client llm.Client, reg *tools.Registry, invoker Invoker, filter *safety.Filter, opts ...Option) *Agent {
	if filter == nil {
		filter = safety.NewFilter()
	}

	agent := &Agent{
		client:       client,
		registry:     reg,
		invoker:      invoker,
		filter:       filter,
		systemPrompt: config.DefaultSystemPrompt,
		maxTokens:    DefaultMaxTokens,
		timeout:      DefaultTimeout,
		log:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(agent)
	}

	toolSchemas := reg.GetSchemas()
	agent.llmTools = make([]llm.Tool, len(toolSchemas))
	for i, schema := range toolSchemas {
		agent.llmTools[i] = llm.Tool{
			Type: schema.Type,
			Function: llm.ToolFunction{
				Name:        schema.Function.Name,
				Description: schema.Function.Description,
				Parameters:  schema.Function.Parameters,
			},
		}
	}

	return agent
}

// SubmitQuery answers one question and returns only the reply text
func (a *Agent) SubmitQuery(ctx context.Context, query string) string {
	return a.Ask(ctx, query).Reply
}

// Ask answers one question. Every failure is converted into a fixed reply;
// Turn.Err carries the cause for callers that want it.
func (a *Agent) Ask(ctx context.Context, query string) (turn *Turn) {
	start := time.Now()
	turn = &Turn{Query: query}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("question handling panicked")
			turn.Reply = ReplyFailure
			turn.Outcome = OutcomeFailed
			turn.Err = fmt.Errorf("panic: %v", r)
		}
		turn.Duration = time.Since(start)
		a.setState(query, StateIdle)
		a.metrics.ObserveTurn(string(turn.Outcome), turn.Duration)
		a.log.Info().
			Str("outcome", string(turn.Outcome)).
			Str("tool", turn.Tool).
			Dur("duration", turn.Duration).
			Msg("question answered")
	}()

	a.setState(query, StateFiltering)
	if verdict := a.filter.Check(query); verdict.Blocked {
		a.log.Warn().Str("keyword", verdict.Keyword).Msg("question blocked by denylist")
		turn.finish(ReplyBlocked, OutcomeBlocked, fmt.Errorf("%w: contains %q", ErrBlockedInput, verdict.Keyword))
		return turn
	}

	a.setState(query, StateAwaitingModel)
	resp, err := a.callModel(ctx, query)
	if err != nil {
		a.log.Error().Err(err).Msg("model call failed")
		turn.finish(ReplyFailure, OutcomeModelUnavailable, err)
		return turn
	}
	turn.Usage = resp.Usage

	if resp.ToolCall != nil {
		a.setState(query, StateDispatching)
		a.dispatch(ctx, resp.ToolCall, turn)
		return turn
	}

	a.setState(query, StateReplying)
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		turn.finish(ReplyDontKnow, OutcomeFallback, nil)
		return turn
	}
	turn.finish(reply, OutcomeDirect, nil)
	return turn
}

// callModel sends the question with the full tool catalog under the call timeout
func (a *Agent) callModel(ctx context.Context, query string) (*llm.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.Chat(ctx, &llm.ChatRequest{
		System:      a.systemPrompt,
		User:        query,
		Tools:       a.llmTools,
		Temperature: 0,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		a.metrics.ObserveLLM("error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	a.metrics.ObserveLLM("ok", time.Since(start))

	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}
	return resp, nil
}

// dispatch validates, looks up, invokes and formats one tool call
func (a *Agent) dispatch(ctx context.Context, call *llm.ToolCall, turn *Turn) {
	turn.Tool = call.Name
	log := a.log.With().Str("tool", call.Name).Logger()

	raw := strings.TrimSpace(call.Arguments)
	if raw != "" && !json.Valid([]byte(raw)) {
		err := fmt.Errorf("%w: %w", ErrMalformedToolCall, tools.ErrMalformedArguments)
		log.Error().Err(err).Msg("model sent malformed tool arguments")
		turn.finish(ReplyFailure, OutcomeMalformedToolCall, err)
		a.notifyToolCall(call.Name, nil, turn)
		return
	}

	desc, ok := a.registry.Lookup(call.Name)
	if !ok {
		// the model asked for something the catalog never advertised
		err := fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		log.Warn().Err(err).Msg("model requested unregistered tool")
		turn.finish(ReplyUnknownTool, OutcomeUnknownTool, err)
		a.notifyToolCall(call.Name, nil, turn)
		return
	}

	args, err := tools.DecodeArgs(desc.ID, raw)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedToolCall, err)
		log.Error().Err(err).Str("arguments", raw).Msg("invalid tool arguments")
		turn.finish(ReplyFailure, OutcomeMalformedToolCall, err)
		a.notifyToolCall(call.Name, nil, turn)
		return
	}

	start := time.Now()
	result, err := a.invoke(ctx, args)
	if err != nil {
		a.metrics.ObserveToolCall(call.Name, "error", time.Since(start))
		if !errors.Is(err, ErrDataUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		log.Error().Err(err).Msg("tool failed")
		turn.finish(ReplyDataUnavailable, OutcomeDataUnavailable, err)
		a.notifyToolCall(call.Name, args, turn)
		return
	}
	a.metrics.ObserveToolCall(call.Name, "ok", time.Since(start))

	turn.finish(format.Format(desc.ID, result), OutcomeTool, nil)
	a.notifyToolCall(call.Name, args, turn)
}

// invoke runs the handler, turning a panic into ErrDataUnavailable
func (a *Agent) invoke(ctx context.Context, args tools.Args) (result tools.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: tool panicked: %v", ErrDataUnavailable, r)
		}
	}()
	return a.invoker.Invoke(ctx, args)
}

func (a *Agent) setState(query string, s State) {
	if a.stateHandler != nil {
		a.stateHandler(query, s)
	}
}

func (a *Agent) notifyToolCall(name string, args tools.Args, turn *Turn) {
	if a.toolCallHandler != nil {
		a.toolCallHandler(name, args, turn.Reply, turn.Err)
	}
}
