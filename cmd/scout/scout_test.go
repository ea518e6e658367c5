package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/scout/pkg/agent"
	"github.com/entrhq/scout/pkg/config"
	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/types"
)

type fakeDiscoverer struct {
	mu        sync.Mutex
	inFlight  int
	maxFlight int
	maxLinks  []int
}

func (f *fakeDiscoverer) Discover(ctx context.Context, target string, maxLinks int) *discovery.Report {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.maxLinks = append(f.maxLinks, maxLinks)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	r := discovery.NewReport(target)
	if strings.Contains(target, "broken") {
		r.Errors = append(r.Errors, "navigation failed: net::ERR_NAME_NOT_RESOLVED")
		return r
	}
	r.Sections = append(r.Sections, discovery.Section{
		Label: "Primary Nav",
		Links: []discovery.Link{{Label: "Pricing", URL: target + "/pricing"}},
	})
	r.TotalLinksFound = 1
	return r
}

func TestNormalizeTargets(t *testing.T) {
	got := normalizeTargets([]string{"acme.com", " https://globex.com/a ", "", "http://initech.io"})
	assert.Equal(t, []string{"https://acme.com", "https://globex.com/a", "http://initech.io"}, got)
}

func TestDiscoverAllKeepsOrderAndLimit(t *testing.T) {
	d := &fakeDiscoverer{}
	targets := []string{"https://a.test", "https://b.test", "https://c.test", "https://d.test", "https://e.test"}

	reports := discoverAll(t.Context(), d, targets, 30, 2)

	require.Len(t, reports, len(targets))
	for i, r := range reports {
		assert.Equal(t, targets[i], r.TargetURL)
	}
	assert.LessOrEqual(t, d.maxFlight, 2)
	for _, n := range d.maxLinks {
		assert.Equal(t, 30, n)
	}
}

func TestDiscoverAllZeroConcurrency(t *testing.T) {
	d := &fakeDiscoverer{}
	reports := discoverAll(t.Context(), d, []string{"https://a.test", "https://b.test"}, 10, 0)

	require.Len(t, reports, 2)
	assert.Equal(t, 1, d.maxFlight)
}

func TestCountFailed(t *testing.T) {
	reports := discoverAll(t.Context(), &fakeDiscoverer{}, []string{"https://ok.test", "https://broken.test"}, 10, 2)
	assert.Equal(t, 1, countFailed(reports))
}

func TestWriteJSON(t *testing.T) {
	reports := discoverAll(t.Context(), &fakeDiscoverer{}, []string{"https://a.test", "https://b.test"}, 10, 2)

	t.Run("single report is an object", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeJSON(&buf, reports[:1]))

		var got discovery.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "https://a.test", got.TargetURL)
		assert.Equal(t, 1, got.TotalLinksFound)
	})

	t.Run("several reports are an array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeJSON(&buf, reports))

		var got []discovery.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "https://b.test", got[1].TargetURL)
	})
}

func TestRenderReport(t *testing.T) {
	r := discovery.NewReport("https://acme.test")
	r.Sections = []discovery.Section{{
		Label: "Footer",
		Links: []discovery.Link{{Label: "Careers", URL: "https://acme.test/careers"}, {URL: "https://acme.test/x"}},
	}}
	r.TotalLinksFound = 2
	r.Errors = []string{"hamburger: click timed out"}

	out := renderReport(r)
	assert.Contains(t, out, "https://acme.test")
	assert.Contains(t, out, "2 links in 1 sections")
	assert.Contains(t, out, "Footer (2)")
	assert.Contains(t, out, "Careers")
	assert.Contains(t, out, "https://acme.test/x")
	assert.Contains(t, out, "hamburger: click timed out")
}

func TestProviderOptions(t *testing.T) {
	assert.Len(t, providerOptions(config.LLMConfig{Model: "gpt-4o"}), 2)
	assert.Len(t, providerOptions(config.LLMConfig{Model: "gpt-4o", BaseURL: "http://localhost:8080/v1", MaxTokens: 512}), 4)
}

func TestResultError(t *testing.T) {
	tests := []struct {
		reason  agent.StopReason
		wantErr bool
	}{
		{agent.StopCompleted, false},
		{agent.StopNoToolCall, false},
		{agent.StopMaxIterations, true},
		{agent.StopCircuitBreaker, true},
		{agent.StopCanceled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := resultError(&agent.Result{StopReason: tt.reason, Iterations: 3})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRenderResult(t *testing.T) {
	result := &agent.Result{
		Output:     "Report written to reports/acme-1234abcd.md",
		StopReason: agent.StopCompleted,
		Metadata:   map[string]interface{}{"path": "reports/acme-1234abcd.md"},
		Iterations: 4,
	}
	out := renderResult(result, 3, 1)
	assert.Contains(t, out, "Research complete")
	assert.Contains(t, out, "reports/acme-1234abcd.md")
	assert.Contains(t, out, "4 iterations, 3 sources, 1 navigation maps")

	stopped := renderResult(&agent.Result{StopReason: agent.StopMaxIterations}, 0, 0)
	assert.Contains(t, stopped, "Research stopped: max_iterations")
}

func TestFormatEvent(t *testing.T) {
	call := types.NewToolCallEvent("fetch_page", map[string]interface{}{"url": "https://acme.test", "max_tokens": "2000"})
	assert.Contains(t, formatEvent(call), "fetch_page")
	assert.Contains(t, formatEvent(call), "max_tokens=2000 url=https://acme.test")

	found := types.NewToolResultEvent("discover_navigation", "...")
	found.Metadata["total_links"] = 12
	assert.Contains(t, formatEvent(found), "found 12 links")

	failed := types.NewToolResultErrorEvent("fetch_page", errors.New("status 404"))
	assert.Contains(t, formatEvent(failed), "fetch_page failed: status 404")

	assert.Empty(t, formatEvent(types.NewTurnEndEvent()))
	assert.Empty(t, formatEvent(types.NewIterationStartEvent(1)))
}

func TestEventPrinterQuiet(t *testing.T) {
	var buf bytes.Buffer
	(&eventPrinter{w: &buf, quiet: true}).handle(types.NewMessageEvent("hello"))
	assert.Empty(t, buf.String())

	(&eventPrinter{w: &buf}).handle(types.NewMessageEvent("hello"))
	assert.Contains(t, buf.String(), "hello")
}

func TestFormatArgsTruncatesLongValues(t *testing.T) {
	out := formatArgs(map[string]interface{}{"content": strings.Repeat("x", 100)})
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Len(t, out, len("content=")+60)
}
