package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/tools/browser"
)

// SearchLinksTool lists the links of a page that match keywords and an
// optional URL glob.
type SearchLinksTool struct {
	cfg Config
}

// NewSearchLinksTool creates a new SearchLinksTool.
func NewSearchLinksTool(cfg Config) *SearchLinksTool {
	return &SearchLinksTool{cfg: cfg.withDefaults()}
}

func (t *SearchLinksTool) Name() string {
	return "search_links"
}

func (t *SearchLinksTool) Description() string {
	return "Load a page and list its links whose text or URL contains any of the keywords (case-insensitive). " +
		"Only links present in the loaded document are searched; use discover_navigation for menus that appear on hover or click."
}

func (t *SearchLinksTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute http(s) URL of the page to search.",
			},
			"keywords": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Words to look for in link text or URL, e.g. pricing, plans. A comma-separated list is also accepted.",
			},
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Optional glob the link URL must also match, e.g. https://*.example.com/docs/*",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum links to return (default %d, max %d).", DefaultSearchLimit, MaxSearchLimit),
			},
		},
		[]string{"url", "keywords"},
	)
}

// keywordList accepts both <keywords><keyword>a</keyword></keywords> and
// <keywords>a, b</keywords>.
type keywordList struct {
	Items []string `xml:"keyword"`
	Text  string   `xml:",chardata"`
}

func (k keywordList) normalized() []string {
	raw := append([]string(nil), k.Items...)
	raw = append(raw, strings.Split(k.Text, ",")...)

	seen := make(map[string]bool)
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func (t *SearchLinksTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName  xml.Name    `xml:"arguments"`
		URL      string      `xml:"url"`
		Keywords keywordList `xml:"keywords"`
		Pattern  string      `xml:"pattern"`
		Limit    int         `xml:"limit"`
	}

	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid arguments: %w", err)
	}

	target, err := validateURL(input.URL)
	if err != nil {
		return "", nil, err
	}

	keywords := input.Keywords.normalized()
	if len(keywords) == 0 {
		return "", nil, fmt.Errorf("missing required parameter: keywords")
	}

	var matcher glob.Glob
	if pattern := strings.TrimSpace(input.Pattern); pattern != "" {
		matcher, err = glob.Compile(pattern)
		if err != nil {
			return "", nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	loaded, err := loadPage(ctx, t.cfg.Pages, target, t.cfg.Navigate)
	if err != nil {
		return "", nil, err
	}

	base, err := url.Parse(loaded.URL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid page url %q: %w", loaded.URL, err)
	}

	links, err := browser.ExtractLinks(loaded.HTML, base)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract links from %s: %w", loaded.URL, err)
	}
	t.cfg.Notebook.AddVisit(loaded.URL, loaded.Title)

	limit := clamp(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	matches := filterLinks(links, keywords, matcher)
	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return formatMatches(loaded.URL, keywords, matches, total, len(links)), map[string]interface{}{
		"url":         loaded.URL,
		"keywords":    keywords,
		"matches":     total,
		"returned":    len(matches),
		"links_total": len(links),
	}, nil
}

// filterLinks keeps links whose label or URL contains any keyword and, when
// matcher is set, whose URL matches it. Order is preserved.
func filterLinks(links []discovery.Link, keywords []string, matcher glob.Glob) []discovery.Link {
	var out []discovery.Link
	for _, l := range links {
		if matcher != nil && !matcher.Match(l.URL) {
			continue
		}
		haystack := strings.ToLower(l.Label + " " + l.URL)
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

func formatMatches(pageURL string, keywords []string, matches []discovery.Link, total, scanned int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Links on %s matching %s: %d of %d\n", pageURL, strings.Join(keywords, ", "), total, scanned)
	if len(matches) == 0 {
		b.WriteString("\nNo matching links. Try other keywords or discover_navigation for hidden menus.\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, l := range matches {
		if l.Label == "" {
			fmt.Fprintf(&b, "- %s\n", l.URL)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", l.Label, l.URL)
	}
	if total > len(matches) {
		fmt.Fprintf(&b, "\n(%d more not shown; raise limit to see them)\n", total-len(matches))
	}
	return b.String()
}

func (t *SearchLinksTool) IsLoopBreaking() bool {
	return false
}
