package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/tools/browser"
)

// FetchPageTool loads a page in the browser and returns its readable text.
type FetchPageTool struct {
	cfg Config
}

// NewFetchPageTool creates a new FetchPageTool.
func NewFetchPageTool(cfg Config) *FetchPageTool {
	return &FetchPageTool{cfg: cfg.withDefaults()}
}

func (t *FetchPageTool) Name() string {
	return "fetch_page"
}

func (t *FetchPageTool) Description() string {
	return "Load a web page in a real browser and return its title, final URL and main text " +
		"as markdown-flavoured plain text. Long pages are truncated to max_tokens."
}

func (t *FetchPageTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute http(s) URL of the page to read.",
			},
			"max_tokens": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum tokens of page text to return (default %d, max %d).", t.cfg.FetchTokens, MaxFetchTokens),
			},
		},
		[]string{"url"},
	)
}

func (t *FetchPageTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName   xml.Name `xml:"arguments"`
		URL       string   `xml:"url"`
		MaxTokens int      `xml:"max_tokens"`
	}

	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid arguments: %w", err)
	}

	target, err := validateURL(input.URL)
	if err != nil {
		return "", nil, err
	}

	loaded, err := loadPage(ctx, t.cfg.Pages, target, t.cfg.Navigate)
	if err != nil {
		return "", nil, err
	}

	readable, err := browser.ReadableText(loaded.HTML, 0)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract text from %s: %w", loaded.URL, err)
	}

	title := loaded.Title
	if title == "" {
		title = readable.Title
	}
	t.cfg.Notebook.AddVisit(loaded.URL, title)

	maxTokens := clamp(input.MaxTokens, t.cfg.FetchTokens, MaxFetchTokens)
	text, truncated := t.cfg.Tokenizer.Truncate(readable.Text, maxTokens)

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", loaded.URL)
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if readable.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", readable.Description)
	}
	b.WriteString("\n")
	if text == "" {
		b.WriteString("(no readable text on this page)\n")
	} else {
		b.WriteString(text)
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "\n[content truncated to %d tokens]\n", maxTokens)
	}

	metadata := map[string]interface{}{
		"url":       loaded.URL,
		"title":     title,
		"status":    loaded.Status,
		"truncated": truncated,
		"tokens":    t.cfg.Tokenizer.CountTokens(text),
	}
	return b.String(), metadata, nil
}

func (t *FetchPageTool) IsLoopBreaking() bool {
	return false
}
