package agent

import (
	"context"
	"fmt"

	"github.com/entrhq/scout/pkg/agent/prompts"
	"github.com/entrhq/scout/pkg/types"
)

// promptContext holds the prepared prompt and related metadata
type promptContext struct {
	messages     []*types.Message
	promptTokens int
}

// llmResponse holds the response from the LLM
type llmResponse struct {
	content          string
	completionTokens int
}

// buildSystemPrompt assembles the system prompt from the registered tools.
func (a *Agent) buildSystemPrompt() string {
	return prompts.NewPromptBuilder().
		WithTools(a.Tools()).
		WithCustomInstructions(a.customInstructions).
		WithIterationBudget(a.maxIterations).
		Build()
}

// preparePrompt builds the prompt and counts its tokens
func (a *Agent) preparePrompt(r *run, errorContext string) *promptContext {
	messages := prompts.BuildMessages(a.buildSystemPrompt(), r.history, "", errorContext)

	promptTokens := a.tokenizer.CountMessagesTokens(messages)
	agentLog.Debugf("Iteration %d: %d messages, %d prompt tokens", r.iteration, len(messages), promptTokens)

	return &promptContext{
		messages:     messages,
		promptTokens: promptTokens,
	}
}

// callLLM sends the request to the LLM and collects the full response
func (a *Agent) callLLM(ctx context.Context, pctx *promptContext) (*llmResponse, error) {
	msg, err := a.provider.Complete(ctx, pctx.messages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Terminal error - LLM/API failures stop the loop
		err = fmt.Errorf("failed to get completion: %w", err)
		a.emitEvent(types.NewErrorEvent(err))
		return nil, err
	}

	return &llmResponse{
		content:          msg.Content,
		completionTokens: a.tokenizer.CountTokens(msg.Content),
	}, nil
}

// recordResponse emits token usage and adds the response to the run history
func (a *Agent) recordResponse(r *run, pctx *promptContext, resp *llmResponse) {
	r.result.PromptTokens += pctx.promptTokens
	r.result.CompletionTokens += resp.completionTokens

	if pctx.promptTokens > 0 || resp.completionTokens > 0 {
		totalTokens := pctx.promptTokens + resp.completionTokens
		a.emitEvent(types.NewTokenUsageEvent(pctx.promptTokens, resp.completionTokens, totalTokens))
	}

	r.history = append(r.history, types.NewAssistantMessage(resp.content))
}
