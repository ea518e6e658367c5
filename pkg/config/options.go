package config

import (
	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/tools/browser"
)

// SessionOptions converts the browser section for the session manager.
func (b BrowserConfig) SessionOptions() browser.SessionOptions {
	return browser.SessionOptions{
		Endpoint:       b.Endpoint,
		Headless:       b.Headless,
		Viewport:       &browser.Viewport{Width: b.ViewportWidth, Height: b.ViewportHeight},
		UserAgent:      b.UserAgent,
		Timeout:        b.Timeout,
		ConnectTimeout: b.ConnectTimeout,
		MaxPages:       b.MaxPages,
	}
}

// ExplorerOptions converts the discovery section for the explorer.
func (d DiscoveryConfig) ExplorerOptions() discovery.Options {
	return discovery.Options{
		NavigationTimeout:   d.NavigationTimeout,
		InteractionTimeout:  d.InteractionTimeout,
		VisibilityTimeout:   d.VisibilityTimeout,
		LoadSettle:          d.LoadSettle,
		HoverSettle:         d.HoverSettle,
		MenuSettle:          d.MenuSettle,
		ScrollSettle:        d.ScrollSettle,
		MaxHoverCandidates:  d.MaxHoverCandidates,
		MaxToggleCandidates: d.MaxToggleCandidates,
		WaitUntil:           d.WaitUntil,
	}
}

// NavigateOptions returns the page-load settings shared by the research tools.
func (d DiscoveryConfig) NavigateOptions() discovery.NavigateOptions {
	return discovery.NavigateOptions{
		WaitUntil: d.WaitUntil,
		Timeout:   d.NavigationTimeout,
	}
}
