// Package discovery finds the navigable links of a single web page, including
// links that only appear after a DOM interaction.
//
// A discovery run navigates once, dismisses a consent overlay if one is
// showing, takes a baseline snapshot of every anchor on the page and then runs
// a fixed sequence of phases:
//
//  1. Primary navigation: anchors inside nav-shaped regions
//  2. Hover: hover each top-level menu item and keep what the hover revealed
//  3. Hamburger: open the first visible menu toggle, keep what appeared, close it
//  4. Footer: scroll to the bottom and collect footer anchors not already in
//     the primary navigation
//
// Each phase contributes zero or more labeled sections to a Report. A single
// Budget caps the number of links across all phases. Only a failed initial
// navigation ends a run early; every other failure is either recorded in
// Report.Errors (a whole phase failed) or silently skipped (one candidate
// element did not cooperate).
//
// The package never talks to a browser directly. It drives the Page and
// Locator interfaces, which the browser package implements over Playwright.
//
// # Example Usage
//
//	explorer := discovery.NewExplorer(sessionManager, discovery.DefaultOptions())
//	report := explorer.Discover(ctx, "https://example.com", 50)
//	fmt.Println(discovery.Summarize(report))
package discovery
