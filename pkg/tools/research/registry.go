package research

import (
	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/llm/tokenizer"
	"github.com/entrhq/scout/pkg/report"
)

const (
	// DefaultFetchTokens caps fetch_page output when the call gives no max_tokens
	DefaultFetchTokens = 4000

	// MaxFetchTokens is the hard ceiling for fetch_page output
	MaxFetchTokens = 16000

	// DefaultSearchLimit caps search_links results when the call gives no limit
	DefaultSearchLimit = 25

	// MaxSearchLimit is the hard ceiling for search_links results
	MaxSearchLimit = 200
)

// Config wires the research tools to their collaborators.
type Config struct {
	// Pages opens isolated browser pages
	Pages discovery.PageProvider

	// Explorer runs hidden-navigation discovery
	Explorer *discovery.Explorer

	// Writer persists the final report
	Writer *report.Writer

	// Notebook is shared by every tool of one run
	Notebook *Notebook

	// Tokenizer truncates fetched content; nil estimates from length
	Tokenizer *tokenizer.Tokenizer

	// Navigate configures page loads for fetch_page and search_links
	Navigate discovery.NavigateOptions

	// FetchTokens is the default fetch_page budget
	FetchTokens int

	// DiscoveryMaxLinks is the default discover_navigation budget
	DiscoveryMaxLinks int
}

func (c Config) withDefaults() Config {
	if c.Notebook == nil {
		c.Notebook = NewNotebook()
	}
	if c.Writer == nil {
		c.Writer = report.NewWriter("")
	}
	if c.Explorer == nil && c.Pages != nil {
		c.Explorer = discovery.NewExplorer(c.Pages, discovery.DefaultOptions())
	}
	if c.FetchTokens <= 0 {
		c.FetchTokens = DefaultFetchTokens
	}
	if c.FetchTokens > MaxFetchTokens {
		c.FetchTokens = MaxFetchTokens
	}
	if c.DiscoveryMaxLinks <= 0 {
		c.DiscoveryMaxLinks = discovery.DefaultMaxLinks
	}
	if c.Navigate.WaitUntil == "" {
		c.Navigate.WaitUntil = discovery.DefaultOptions().WaitUntil
	}
	return c
}

// NewTools returns the four research tools sharing one notebook.
func NewTools(cfg Config) []tools.Tool {
	cfg = cfg.withDefaults()
	return []tools.Tool{
		NewFetchPageTool(cfg),
		NewSearchLinksTool(cfg),
		NewDiscoverNavigationTool(cfg),
		NewWriteReportTool(cfg),
	}
}

// clamp returns v bounded to [1, max], or def when v is not positive.
func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
