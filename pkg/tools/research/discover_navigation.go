package research

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/discovery"
)

// DiscoverNavigationTool runs the hidden-navigation explorer against a page.
type DiscoverNavigationTool struct {
	cfg Config
}

// NewDiscoverNavigationTool creates a new DiscoverNavigationTool.
func NewDiscoverNavigationTool(cfg Config) *DiscoverNavigationTool {
	return &DiscoverNavigationTool{cfg: cfg.withDefaults()}
}

func (t *DiscoverNavigationTool) Name() string {
	return "discover_navigation"
}

func (t *DiscoverNavigationTool) Description() string {
	return "Map a site's navigation from one page, including links that only appear on hover, " +
		"behind a hamburger menu or in the footer. Cookie banners are dismissed first. " +
		"Use it on a homepage to find pricing, product and documentation pages."
}

func (t *DiscoverNavigationTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute http(s) URL of the page whose navigation to map.",
			},
			"max_links": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum links to collect across all menus (default %d).", t.cfg.DiscoveryMaxLinks),
			},
		},
		[]string{"url"},
	)
}

func (t *DiscoverNavigationTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName  xml.Name `xml:"arguments"`
		URL      string   `xml:"url"`
		MaxLinks int      `xml:"max_links"`
	}

	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid arguments: %w", err)
	}

	target, err := validateURL(input.URL)
	if err != nil {
		return "", nil, err
	}

	if t.cfg.Explorer == nil {
		return "", nil, fmt.Errorf("navigation discovery is not configured")
	}

	maxLinks := input.MaxLinks
	if maxLinks <= 0 {
		maxLinks = t.cfg.DiscoveryMaxLinks
	}

	result := t.cfg.Explorer.Discover(ctx, target, maxLinks)
	t.cfg.Notebook.AddDiscovery(result)

	researchLog.Infof("Discovered %d links on %s (%d errors)", result.TotalLinksFound, target, len(result.Errors))

	return discovery.Summarize(result), map[string]interface{}{
		"url":         result.TargetURL,
		"total_links": result.TotalLinksFound,
		"sections":    len(result.Sections),
		"errors":      len(result.Errors),
		"report":      result,
	}, nil
}

func (t *DiscoverNavigationTool) IsLoopBreaking() bool {
	return false
}
