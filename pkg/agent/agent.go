// Package agent runs the research loop: it prompts an LLM with the available
// tools, executes the one tool call in each reply and feeds the result back
// until a loop-breaking tool finishes the run.
//
//	ag := agent.New(provider,
//	    agent.WithMaxIterations(20),
//	    agent.WithEventHandler(func(e *types.AgentEvent) { ... }),
//	)
//	ag.RegisterTool(research.NewFetchPageTool(...))
//	result, err := ag.Run(ctx, "Compare the pricing pages of acme.com and globex.com")
package agent

import (
	"fmt"
	"sync"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/llm"
	"github.com/entrhq/scout/pkg/llm/tokenizer"
	"github.com/entrhq/scout/pkg/logging"
	"github.com/entrhq/scout/pkg/types"
)

var agentLog *logging.Logger

func init() {
	var err error
	agentLog, err = logging.NewLogger("agent")
	if err != nil {
		agentLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

const (
	// DefaultMaxIterations bounds a run when no limit is configured
	DefaultMaxIterations = 25

	// DefaultMaxResultTokens caps each tool result kept in history
	DefaultMaxResultTokens = 6000

	// maxConsecutiveErrors trips the circuit breaker
	maxConsecutiveErrors = 5
)

// StopReason says why a run ended.
type StopReason string

const (
	StopCompleted      StopReason = "completed"       // a loop-breaking tool finished the run
	StopNoToolCall     StopReason = "no_tool_call"    // the model answered in prose
	StopMaxIterations  StopReason = "max_iterations"  // the iteration budget ran out
	StopCircuitBreaker StopReason = "circuit_breaker" // too many consecutive errors
	StopCanceled       StopReason = "canceled"        // the context was canceled
	StopLLMError       StopReason = "llm_error"       // the provider failed
)

// Result is the outcome of one research run.
type Result struct {
	// Output is the loop-breaking tool's result, or the model's final prose
	Output string

	// FinishedBy names the loop-breaking tool, empty otherwise
	FinishedBy string

	// Metadata is the loop-breaking tool's metadata
	Metadata map[string]interface{}

	StopReason       StopReason
	Iterations       int
	PromptTokens     int
	CompletionTokens int
}

// Completed reports whether a loop-breaking tool finished the run.
func (r *Result) Completed() bool {
	return r.StopReason == StopCompleted
}

// Agent runs research tasks against an LLM provider. Tools are registered
// once; each Run keeps its own conversation, so an Agent can serve several
// runs concurrently.
type Agent struct {
	provider           llm.Provider
	customInstructions string
	maxIterations      int
	maxResultTokens    int
	tokenizer          *tokenizer.Tokenizer
	tokenizerSet       bool
	onEvent            func(*types.AgentEvent)

	tools   map[string]tools.Tool
	order   []string
	toolsMu sync.RWMutex
}

// Option is a function that configures an agent
type Option func(*Agent)

// WithCustomInstructions adds operator instructions to the system prompt
func WithCustomInstructions(instructions string) Option {
	return func(a *Agent) {
		a.customInstructions = instructions
	}
}

// WithMaxIterations sets the maximum number of LLM calls per run
func WithMaxIterations(max int) Option {
	return func(a *Agent) {
		if max > 0 {
			a.maxIterations = max
		}
	}
}

// WithMaxResultTokens caps each tool result kept in the conversation
func WithMaxResultTokens(max int) Option {
	return func(a *Agent) {
		if max > 0 {
			a.maxResultTokens = max
		}
	}
}

// WithTokenizer sets the tokenizer used for accounting and truncation. A nil
// tokenizer estimates counts from text length.
func WithTokenizer(tok *tokenizer.Tokenizer) Option {
	return func(a *Agent) {
		a.tokenizer = tok
		a.tokenizerSet = true
	}
}

// WithEventHandler receives every event of every run. The handler is called
// synchronously from the run's goroutine.
func WithEventHandler(handler func(*types.AgentEvent)) Option {
	return func(a *Agent) {
		a.onEvent = handler
	}
}

// New creates an agent. The built-in task_completion tool is always registered.
func New(provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		provider:        provider,
		maxIterations:   DefaultMaxIterations,
		maxResultTokens: DefaultMaxResultTokens,
		tools:           make(map[string]tools.Tool),
	}

	for _, opt := range opts {
		opt(a)
	}

	if !a.tokenizerSet {
		tok, err := tokenizer.New()
		if err != nil {
			agentLog.Warnf("Tokenizer unavailable, estimating token counts: %v", err)
		}
		a.tokenizer = tok
	}

	a.registerTool(tools.NewTaskCompletionTool())
	return a
}

// RegisterTool adds a tool to the agent. Names must be unique.
func (a *Agent) RegisterTool(tool tools.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	a.toolsMu.Lock()
	defer a.toolsMu.Unlock()

	if _, exists := a.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	a.tools[name] = tool
	a.order = append(a.order, name)
	return nil
}

func (a *Agent) registerTool(tool tools.Tool) {
	if err := a.RegisterTool(tool); err != nil {
		agentLog.Errorf("Failed to register built-in tool: %v", err)
	}
}

func (a *Agent) emitEvent(event *types.AgentEvent) {
	if a.onEvent != nil {
		a.onEvent(event)
	}
}
