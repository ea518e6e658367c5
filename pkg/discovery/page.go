package discovery

import (
	"context"
	"time"
)

// Anchor is the raw record read from one anchor-like element.
type Anchor struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// NavigateOptions configures the initial page load.
type NavigateOptions struct {
	// WaitUntil is the load state to wait for: "load", "domcontentloaded" or "networkidle"
	WaitUntil string

	// Timeout bounds the whole navigation
	Timeout time.Duration
}

// Page is the browsing capability a discovery run needs. One Page is used by
// exactly one run, strictly sequentially.
type Page interface {
	// Navigate loads url and returns the HTTP status of the main document.
	// A status of 0 means no response was available (e.g. same-document navigation).
	Navigate(url string, opts NavigateOptions) (int, error)

	// URL returns the current document URL after redirects.
	URL() string

	// QueryLinks returns href/text pairs for every element matching scope.
	QueryLinks(scope string) ([]Anchor, error)

	// Locate returns a lazy handle for elements matching selector.
	Locate(selector string) Locator

	// ScrollToBottom scrolls the document to its end.
	ScrollToBottom() error

	// Wait blocks for d.
	Wait(d time.Duration)

	// Close releases the page.
	Close() error
}

// Locator is a lazy, re-resolvable handle to zero or more elements.
type Locator interface {
	Count() (int, error)
	Nth(i int) Locator
	IsVisible(timeout time.Duration) (bool, error)
	Hover(timeout time.Duration) error
	Click(timeout time.Duration) error
	TextContent(timeout time.Duration) (string, error)
}

// PageProvider hands out isolated pages from a shared browsing session.
type PageProvider interface {
	NewPage(ctx context.Context) (Page, error)
}
