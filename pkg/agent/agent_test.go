package agent

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/llm"
	"github.com/entrhq/scout/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replies with canned responses in order and records every
// prompt it receives.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     [][]*types.Message
}

func (p *scriptedProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	msg, err := p.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	ch := make(chan *llm.StreamChunk, 1)
	ch <- &llm.StreamChunk{Role: string(msg.Role), Content: msg.Content, Finished: true}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, messages)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	return types.NewAssistantMessage(next), nil
}

func (p *scriptedProvider) GetModelInfo() *types.ModelInfo { return &types.ModelInfo{Name: "scripted"} }
func (p *scriptedProvider) GetModel() string               { return "scripted" }
func (p *scriptedProvider) GetBaseURL() string             { return "" }
func (p *scriptedProvider) GetAPIKey() string              { return "" }

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *scriptedProvider) lastPrompt() []*types.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[len(p.calls)-1]
}

// echoTool returns its url argument, or fails when told to.
type echoTool struct {
	name  string
	fail  bool
	panic bool
	calls int
}

func (e *echoTool) Name() string         { return e.name }
func (e *echoTool) Description() string  { return "Echoes the url" }
func (e *echoTool) IsLoopBreaking() bool { return false }
func (e *echoTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{
		"url": map[string]interface{}{"type": "string", "description": "URL"},
	}, []string{"url"})
}

func (e *echoTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	e.calls++
	if e.panic {
		panic("boom")
	}
	if e.fail {
		return "", nil, errors.New("page timed out")
	}
	var args struct {
		XMLName xml.Name `xml:"arguments"`
		URL     string   `xml:"url"`
	}
	if err := tools.UnmarshalXMLWithFallback(argsXML, &args); err != nil {
		return "", nil, err
	}
	return "fetched " + args.URL, map[string]interface{}{"url": args.URL}, nil
}

func toolCallXML(name, args string) string {
	return fmt.Sprintf("<tool>\n<server_name>local</server_name>\n<tool_name>%s</tool_name>\n<arguments>%s</arguments>\n</tool>", name, args)
}

func completionXML(result string) string {
	return toolCallXML(tools.TaskCompletionToolName, "<result>"+result+"</result>")
}

type eventRecorder struct {
	mu     sync.Mutex
	events []*types.AgentEvent
}

func (r *eventRecorder) handle(e *types.AgentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) eventTypes() []types.AgentEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.AgentEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *eventRecorder) count(t types.AgentEventType) int {
	n := 0
	for _, et := range r.eventTypes() {
		if et == t {
			n++
		}
	}
	return n
}

func newTestAgent(p llm.Provider, opts ...Option) (*Agent, *eventRecorder) {
	rec := &eventRecorder{}
	opts = append([]Option{WithTokenizer(nil), WithEventHandler(rec.handle)}, opts...)
	return New(p, opts...), rec
}

func TestRegisterTool(t *testing.T) {
	a, _ := newTestAgent(&scriptedProvider{})

	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))
	assert.Error(t, a.RegisterTool(nil))
	assert.Error(t, a.RegisterTool(&echoTool{name: ""}))
	assert.Error(t, a.RegisterTool(&echoTool{name: "fetch_page"}))
	assert.Error(t, a.RegisterTool(tools.NewTaskCompletionTool()), "built-in tool is already registered")

	names := make([]string, 0)
	for _, tool := range a.Tools() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{tools.TaskCompletionToolName, "fetch_page"}, names)
}

func TestRunCompletesWithLoopBreakingTool(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Let me look at the pricing page.\n" + toolCallXML("fetch_page", "<url>https://acme.test/pricing</url>"),
		completionXML("Acme charges $10 per seat (https://acme.test/pricing)."),
	}}
	a, rec := newTestAgent(provider)
	echo := &echoTool{name: "fetch_page"}
	require.NoError(t, a.RegisterTool(echo))

	result, err := a.Run(t.Context(), "What does Acme charge?")
	require.NoError(t, err)

	assert.Equal(t, StopCompleted, result.StopReason)
	assert.True(t, result.Completed())
	assert.Equal(t, tools.TaskCompletionToolName, result.FinishedBy)
	assert.Equal(t, "Acme charges $10 per seat (https://acme.test/pricing).", result.Output)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, echo.calls)
	assert.Positive(t, result.PromptTokens)
	assert.Positive(t, result.CompletionTokens)

	// The second prompt carries the tool result as a user message
	prompt := provider.lastPrompt()
	last := prompt[len(prompt)-1]
	assert.Equal(t, types.RoleUser, last.Role)
	assert.Equal(t, "Tool 'fetch_page' result:\nfetched https://acme.test/pricing", last.Content)
	assert.Equal(t, types.RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "fetch_page")

	assert.Equal(t, 2, rec.count(types.EventTypeIterationStart))
	assert.Equal(t, 2, rec.count(types.EventTypeToolCall))
	assert.Equal(t, 2, rec.count(types.EventTypeToolResult))
	assert.Equal(t, 1, rec.count(types.EventTypeMessage))
	evts := rec.eventTypes()
	assert.Equal(t, types.EventTypeTurnEnd, evts[len(evts)-1])
}

func TestRunToolResultMetadataOnEvent(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		toolCallXML("fetch_page", "<url>https://acme.test</url>"),
		completionXML("done"),
	}}
	a, rec := newTestAgent(provider)
	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))

	_, err := a.Run(t.Context(), "task")
	require.NoError(t, err)

	for _, e := range rec.events {
		if e.Type == types.EventTypeToolCall && e.ToolName == "fetch_page" {
			assert.Equal(t, "https://acme.test", e.ToolInput["url"])
		}
		if e.Type == types.EventTypeToolResult && e.ToolName == "fetch_page" {
			assert.Equal(t, "https://acme.test", e.Metadata["url"])
		}
	}
}

func TestRunProseAnswerEndsRun(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"<thinking>easy</thinking>Acme has three plans."}}
	a, rec := newTestAgent(provider)

	result, err := a.Run(t.Context(), "How many plans?")
	require.NoError(t, err)
	assert.Equal(t, StopNoToolCall, result.StopReason)
	assert.Equal(t, "Acme has three plans.", result.Output)
	assert.False(t, result.Completed())
	assert.Equal(t, 1, rec.count(types.EventTypeNoToolCall))
}

func TestRunRecoversFromErrors(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		contains string
	}{
		{name: "empty reply", first: "   ", contains: "did not contain a tool call"},
		{name: "unknown tool", first: toolCallXML("crawl_site", ""), contains: `no tool named "crawl_site"`},
		{name: "invalid xml", first: "<tool><tool_name>fetch_page</tool_name><arguments><url>x</arguments></tool>", contains: "could not be parsed"},
		{name: "tool failure", first: toolCallXML("broken", "<url>https://acme.test</url>"), contains: `Tool "broken" failed: page timed out`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{responses: []string{tt.first, completionXML("ok")}}
			a, rec := newTestAgent(provider)
			require.NoError(t, a.RegisterTool(&echoTool{name: "broken", fail: true}))

			result, err := a.Run(t.Context(), "task")
			require.NoError(t, err)
			assert.Equal(t, StopCompleted, result.StopReason)

			// The recovery message reaches the model but is not kept in history
			prompt := provider.lastPrompt()
			last := prompt[len(prompt)-1]
			assert.Equal(t, types.RoleUser, last.Role)
			assert.Contains(t, last.Content, tt.contains)
			assert.True(t, strings.HasPrefix(last.Content, "<error>"))
			assert.Positive(t, rec.count(types.EventTypeError))
		})
	}
}

func TestRunRecoveryMessageIsEphemeral(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"",
		toolCallXML("fetch_page", "<url>https://acme.test</url>"),
		completionXML("ok"),
	}}
	a, _ := newTestAgent(provider)
	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))

	_, err := a.Run(t.Context(), "task")
	require.NoError(t, err)

	for _, msg := range provider.lastPrompt() {
		assert.NotContains(t, msg.Content, "<error>")
	}
}

func TestRunCircuitBreaker(t *testing.T) {
	responses := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		responses = append(responses, toolCallXML("broken", "<url>https://acme.test</url>"))
	}
	provider := &scriptedProvider{responses: responses}
	a, _ := newTestAgent(provider)
	broken := &echoTool{name: "broken", fail: true}
	require.NoError(t, a.RegisterTool(broken))

	result, err := a.Run(t.Context(), "task")
	require.NoError(t, err)
	assert.Equal(t, StopCircuitBreaker, result.StopReason)
	assert.Equal(t, maxConsecutiveErrors, broken.calls)
	assert.Equal(t, maxConsecutiveErrors, provider.callCount())
}

func TestRunSuccessResetsCircuitBreaker(t *testing.T) {
	responses := []string{}
	for i := 0; i < maxConsecutiveErrors-1; i++ {
		responses = append(responses, "")
	}
	responses = append(responses, toolCallXML("fetch_page", "<url>https://acme.test</url>"))
	for i := 0; i < maxConsecutiveErrors-1; i++ {
		responses = append(responses, "")
	}
	responses = append(responses, completionXML("ok"))

	provider := &scriptedProvider{responses: responses}
	a, _ := newTestAgent(provider)
	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))

	result, err := a.Run(t.Context(), "task")
	require.NoError(t, err)
	assert.Equal(t, StopCompleted, result.StopReason)
}

func TestRunPanickingToolIsRecovered(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		toolCallXML("explode", "<url>https://acme.test</url>"),
		completionXML("ok"),
	}}
	a, _ := newTestAgent(provider)
	require.NoError(t, a.RegisterTool(&echoTool{name: "explode", panic: true}))

	result, err := a.Run(t.Context(), "task")
	require.NoError(t, err)
	assert.Equal(t, StopCompleted, result.StopReason)

	prompt := provider.lastPrompt()
	assert.Contains(t, prompt[len(prompt)-1].Content, "panicked")
}

func TestRunMaxIterations(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		toolCallXML("fetch_page", "<url>https://a.test</url>"),
		toolCallXML("fetch_page", "<url>https://b.test</url>"),
		toolCallXML("fetch_page", "<url>https://c.test</url>"),
	}}
	a, _ := newTestAgent(provider, WithMaxIterations(2))
	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))

	result, err := a.Run(t.Context(), "task")
	require.NoError(t, err)
	assert.Equal(t, StopMaxIterations, result.StopReason)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 2, provider.callCount())
	assert.Contains(t, provider.lastPrompt()[0].Content, "at most 2 tool calls")
}

func TestRunTruncatesLongResults(t *testing.T) {
	long := "https://acme.test/" + strings.Repeat("x", 400)
	provider := &scriptedProvider{responses: []string{
		toolCallXML("fetch_page", "<url>"+long+"</url>"),
		completionXML("ok"),
	}}
	a, _ := newTestAgent(provider, WithMaxResultTokens(10))
	require.NoError(t, a.RegisterTool(&echoTool{name: "fetch_page"}))

	_, err := a.Run(t.Context(), "task")
	require.NoError(t, err)

	prompt := provider.lastPrompt()
	last := prompt[len(prompt)-1].Content
	assert.Contains(t, last, "[result truncated]")
	assert.Less(t, len(last), len(long))
}

func TestRunProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("rate limited")}
	a, rec := newTestAgent(provider)

	result, err := a.Run(t.Context(), "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, StopLLMError, result.StopReason)
	assert.Equal(t, 1, rec.count(types.EventTypeError))
	assert.Equal(t, 1, rec.count(types.EventTypeTurnEnd))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	provider := &scriptedProvider{responses: []string{completionXML("ok")}}
	a, _ := newTestAgent(provider)

	result, err := a.Run(ctx, "task")
	require.NoError(t, err)
	assert.Equal(t, StopCanceled, result.StopReason)
	assert.Zero(t, provider.callCount())
}

func TestRunValidation(t *testing.T) {
	a, _ := newTestAgent(&scriptedProvider{})
	_, err := a.Run(t.Context(), "  ")
	assert.Error(t, err)

	noProvider := New(nil, WithTokenizer(nil))
	_, err = noProvider.Run(t.Context(), "task")
	assert.Error(t, err)
}

func TestErrorTracking(t *testing.T) {
	r := &run{result: &Result{}}
	for i := 1; i < maxConsecutiveErrors; i++ {
		assert.False(t, r.trackError(fmt.Sprintf("err %d", i)))
	}
	assert.Equal(t, []string{"err 1", "err 2", "err 3", "err 4"}, r.recentErrors())
	assert.True(t, r.trackError("err 5"))

	r.resetErrorTracking()
	assert.Empty(t, r.recentErrors())
	assert.False(t, r.trackError("again"))
}
