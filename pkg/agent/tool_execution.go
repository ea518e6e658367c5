package agent

import (
	"context"
	"fmt"
	"maps"

	"github.com/entrhq/scout/pkg/agent/prompts"
	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/types"
)

// executeToolCall emits events, executes the tool, and handles execution errors
// Returns (result, metadata, shouldContinue, errorContext)
func (a *Agent) executeToolCall(ctx context.Context, r *run, tool tools.Tool, toolCall tools.ToolCall) (string, map[string]interface{}, bool, string) {
	// Emit tool call event - parse arguments to map for event emission
	argsMap, err := tools.XMLToMap(toolCall.GetArgumentsXML())
	if err != nil {
		// If parsing fails, emit empty map - the tool itself will report the bad XML
		argsMap = make(map[string]interface{})
	}
	a.emitEvent(types.NewToolCallEvent(toolCall.ToolName, argsMap))

	result, metadata, toolErr := a.safeExecute(ctx, tool, toolCall)
	if toolErr != nil {
		a.emitEvent(types.NewToolResultErrorEvent(toolCall.ToolName, toolErr))
		if ctx.Err() != nil {
			r.result.StopReason = StopCanceled
			return "", nil, false, ""
		}

		errMsg := prompts.BuildErrorRecoveryMessage(prompts.ErrorRecoveryContext{
			Type:     prompts.ErrorTypeToolExecution,
			ToolName: toolCall.ToolName,
			Error:    toolErr,
		})

		// Track error and check circuit breaker
		if r.trackError(errMsg) {
			a.tripCircuitBreaker(r)
			return "", nil, false, ""
		}

		agentLog.Warnf("Tool %s failed: %v", toolCall.ToolName, toolErr)
		a.emitEvent(types.NewErrorEvent(fmt.Errorf("tool execution failed: %w", toolErr)))
		return "", nil, true, errMsg
	}

	return result, metadata, true, ""
}

// safeExecute runs the tool and turns a panic into an error.
func (a *Agent) safeExecute(ctx context.Context, tool tools.Tool, toolCall tools.ToolCall) (result string, metadata map[string]interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			agentLog.Errorf("Tool %s panicked: %v", toolCall.ToolName, rec)
			err = fmt.Errorf("tool %s panicked: %v", toolCall.ToolName, rec)
		}
	}()
	return tool.Execute(ctx, toolCall.GetArgumentsXML())
}

// processToolResult handles successful tool execution results
// Returns (shouldContinue, errorContext)
func (a *Agent) processToolResult(r *run, tool tools.Tool, toolCall tools.ToolCall, result string, metadata map[string]interface{}) (bool, string) {
	event := types.NewToolResultEvent(toolCall.ToolName, result)
	if len(metadata) > 0 {
		maps.Copy(event.Metadata, metadata)
	}
	a.emitEvent(event)

	// Success! Reset error tracking
	r.resetErrorTracking()

	if tool.IsLoopBreaking() {
		r.result.Output = result
		r.result.FinishedBy = toolCall.ToolName
		r.result.Metadata = metadata
		r.result.StopReason = StopCompleted
		return false, ""
	}

	// Keep long page dumps from crowding out the rest of the conversation
	if truncated, cut := a.tokenizer.Truncate(result, a.maxResultTokens); cut {
		agentLog.Debugf("Truncated %s result to %d tokens", toolCall.ToolName, a.maxResultTokens)
		result = truncated + "\n\n[result truncated]"
	}

	r.history = append(r.history, types.NewToolMessage(fmt.Sprintf("Tool '%s' result:\n%s", toolCall.ToolName, result)))
	return true, ""
}

// lookupTool retrieves a tool by name and handles lookup errors
// Returns (tool, shouldContinue, errorContext)
func (a *Agent) lookupTool(r *run, toolName string) (tools.Tool, bool, string) {
	tool, exists := a.getTool(toolName)
	if !exists {
		errMsg := prompts.BuildErrorRecoveryMessage(prompts.ErrorRecoveryContext{
			Type:           prompts.ErrorTypeUnknownTool,
			ToolName:       toolName,
			AvailableTools: a.Tools(),
		})

		if r.trackError(errMsg) {
			a.tripCircuitBreaker(r)
			return nil, false, ""
		}

		a.emitEvent(types.NewErrorEvent(fmt.Errorf("unknown tool: %s", toolName)))
		return nil, true, errMsg
	}

	return tool, true, ""
}

// executeTool handles tool lookup, execution, and result processing
// Returns (shouldContinue, errorContext) following the same pattern as executeIteration
func (a *Agent) executeTool(ctx context.Context, r *run, toolCall tools.ToolCall) (bool, string) {
	tool, shouldContinue, errCtx := a.lookupTool(r, toolCall.ToolName)
	if !shouldContinue || errCtx != "" {
		return shouldContinue, errCtx
	}

	result, metadata, shouldContinue, errCtx := a.executeToolCall(ctx, r, tool, toolCall)
	if !shouldContinue || errCtx != "" {
		return shouldContinue, errCtx
	}

	return a.processToolResult(r, tool, toolCall, result, metadata)
}
