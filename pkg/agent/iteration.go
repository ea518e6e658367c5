package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/scout/pkg/agent/prompts"
	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/types"
)

// run holds the state of a single research run.
type run struct {
	history   []*types.Message
	iteration int
	result    *Result

	lastErrors        [maxConsecutiveErrors]string // Ring buffer of recent error messages
	errorIndex        int                          // Current position in ring buffer
	consecutiveErrors int
}

// Run researches task until a loop-breaking tool finishes, the model stops
// calling tools, the iteration budget runs out or ctx is canceled. An error is
// returned only when the provider fails; every other outcome is described by
// the result's StopReason.
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("task cannot be empty")
	}
	if a.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	r := &run{
		history: []*types.Message{types.NewUserMessage(task)},
		result:  &Result{},
	}
	defer a.emitEvent(types.NewTurnEndEvent())

	agentLog.Infof("Starting research run (max %d iterations)", a.maxIterations)
	err := a.runAgentLoop(ctx, r)
	r.result.Iterations = r.iteration

	if err != nil {
		agentLog.Errorf("Research run failed after %d iterations: %v", r.iteration, err)
		return r.result, err
	}
	agentLog.Infof("Research run ended after %d iterations: %s", r.iteration, r.result.StopReason)
	return r.result, nil
}

// runAgentLoop iterates until an iteration decides the run is over.
func (a *Agent) runAgentLoop(ctx context.Context, r *run) error {
	var errorContext string

	for {
		if ctx.Err() != nil {
			r.result.StopReason = StopCanceled
			return nil
		}

		if r.iteration >= a.maxIterations {
			r.result.StopReason = StopMaxIterations
			a.emitEvent(types.NewErrorEvent(fmt.Errorf("iteration budget of %d exhausted", a.maxIterations)))
			return nil
		}

		r.iteration++
		a.emitEvent(types.NewIterationStartEvent(r.iteration))

		shouldContinue, nextErrorContext, err := a.executeIteration(ctx, r, errorContext)
		if err != nil {
			return err
		}
		if !shouldContinue {
			return nil
		}

		errorContext = nextErrorContext
	}
}

// executeIteration performs a single iteration of the agent loop
// Returns (shouldContinue, errorContext, err) where:
//   - shouldContinue: false means the run is over and r.result.StopReason is set
//   - errorContext: message to inject as user context for error recovery (empty if no error)
//   - err: a provider failure that ends the run
func (a *Agent) executeIteration(ctx context.Context, r *run, errorContext string) (bool, string, error) {
	pctx := a.preparePrompt(r, errorContext)

	resp, err := a.callLLM(ctx, pctx)
	if err != nil {
		if ctx.Err() != nil {
			r.result.StopReason = StopCanceled
			return false, "", nil
		}
		r.result.StopReason = StopLLMError
		return false, "", err
	}

	a.recordResponse(r, pctx, resp)

	return a.processToolCall(ctx, r, resp.content)
}

// processToolCall parses the assistant's reply and dispatches its tool call.
func (a *Agent) processToolCall(ctx context.Context, r *run, content string) (bool, string, error) {
	toolCall, prose, err := tools.ParseToolCall(content)
	if prose != "" && (err == nil || errors.Is(err, tools.ErrNoToolCall)) {
		a.emitEvent(types.NewMessageEvent(prose))
	}

	switch {
	case errors.Is(err, tools.ErrNoToolCall):
		a.emitEvent(types.NewNoToolCallEvent())
		if prose != "" {
			// A prose answer without a tool call ends the run.
			r.result.Output = prose
			r.result.StopReason = StopNoToolCall
			return false, "", nil
		}
		return a.recoverable(r, prompts.ErrorRecoveryContext{Type: prompts.ErrorTypeNoToolCall},
			fmt.Errorf("empty response from model"))

	case err != nil:
		return a.recoverable(r, prompts.ErrorRecoveryContext{
			Type:  prompts.ErrorTypeInvalidXML,
			Error: err,
		}, fmt.Errorf("invalid tool call: %w", err))
	}

	shouldContinue, errCtx := a.executeTool(ctx, r, *toolCall)
	return shouldContinue, errCtx, nil
}

// recoverable tracks a failed iteration and returns the recovery message for
// the next one, or stops the run once the circuit breaker trips.
func (a *Agent) recoverable(r *run, rc prompts.ErrorRecoveryContext, cause error) (bool, string, error) {
	errMsg := prompts.BuildErrorRecoveryMessage(rc)
	if r.trackError(errMsg) {
		a.tripCircuitBreaker(r)
		return false, "", nil
	}

	a.emitEvent(types.NewErrorEvent(cause))
	return true, errMsg, nil
}

func (a *Agent) tripCircuitBreaker(r *run) {
	r.result.StopReason = StopCircuitBreaker
	err := fmt.Errorf("circuit breaker triggered: %d consecutive errors", maxConsecutiveErrors)
	agentLog.Warnf("%v; last errors: %s", err, strings.Join(r.recentErrors(), " | "))
	a.emitEvent(types.NewErrorEvent(err))
}
