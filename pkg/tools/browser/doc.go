// Package browser provides the Playwright-backed browsing session used by the
// research tools and the discovery engine.
//
// # Architecture
//
// A single SessionManager owns the Playwright driver and one browser
// connection. The connection is provisioned lazily on the first page request:
//
//   - With an endpoint configured, the manager attaches to a remote Chromium
//     over the DevTools protocol (ConnectOverCDP).
//   - Without one, it launches a local Chromium.
//
// Every caller gets its own isolated Page (a fresh browser context with a
// single tab). Pages are never shared, so concurrent discovery runs cannot
// corrupt each other's DOM snapshots. The number of open pages is bounded;
// NewPage blocks until a slot frees up or the context is cancelled.
//
// Page implements discovery.Page, so the manager itself is a
// discovery.PageProvider.
//
// # Content Helpers
//
// ReadableText converts fetched HTML into compact text for the language
// model, and ExtractLinks lists a document's anchors through goquery.
//
// # Example Usage
//
//	manager := browser.NewSessionManager(browser.SessionOptions{
//	    Endpoint: "ws://browser.internal:9222",
//	})
//	defer manager.Shutdown()
//
//	page, err := manager.OpenPage(ctx)
//	if err != nil {
//	    return err
//	}
//	defer page.Close()
//
//	status, err := page.Navigate("https://example.com", discovery.NavigateOptions{})
package browser
