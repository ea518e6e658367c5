package discovery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/entrhq/scout/pkg/logging"
)

var discoveryLog *logging.Logger

func init() {
	var err error
	discoveryLog, err = logging.NewLogger("discovery")
	if err != nil {
		discoveryLog.Warnf("Failed to initialize discovery logger, using stderr fallback: %v", err)
	}
}

// Options tunes timeouts, settle delays and per-phase caps of a discovery run.
type Options struct {
	// NavigationTimeout bounds the initial page load
	NavigationTimeout time.Duration

	// InteractionTimeout bounds each hover, click and text read
	InteractionTimeout time.Duration

	// VisibilityTimeout bounds each visibility probe
	VisibilityTimeout time.Duration

	// LoadSettle is waited after navigation for client-side rendering
	LoadSettle time.Duration

	// HoverSettle is waited after each hover for animated submenus
	HoverSettle time.Duration

	// MenuSettle is waited after opening or closing a menu toggle
	MenuSettle time.Duration

	// ScrollSettle is waited after scrolling to the footer
	ScrollSettle time.Duration

	// MaxHoverCandidates caps the elements hovered per hover scope
	MaxHoverCandidates int

	// MaxToggleCandidates caps the visibility probes per menu toggle selector
	MaxToggleCandidates int

	// WaitUntil is the load state awaited by navigation
	WaitUntil string
}

// DefaultOptions returns the settings used in production.
func DefaultOptions() Options {
	return Options{
		NavigationTimeout:   30 * time.Second,
		InteractionTimeout:  2 * time.Second,
		VisibilityTimeout:   500 * time.Millisecond,
		LoadSettle:          1500 * time.Millisecond,
		HoverSettle:         400 * time.Millisecond,
		MenuSettle:          600 * time.Millisecond,
		ScrollSettle:        800 * time.Millisecond,
		MaxHoverCandidates:  15,
		MaxToggleCandidates: 3,
		WaitUntil:           "domcontentloaded",
	}
}

// withDefaults fills zero-valued fields from DefaultOptions. Settle delays
// are left alone so callers can disable them.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.InteractionTimeout <= 0 {
		o.InteractionTimeout = d.InteractionTimeout
	}
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = d.VisibilityTimeout
	}
	if o.MaxHoverCandidates <= 0 {
		o.MaxHoverCandidates = d.MaxHoverCandidates
	}
	if o.MaxToggleCandidates <= 0 {
		o.MaxToggleCandidates = d.MaxToggleCandidates
	}
	if o.WaitUntil == "" {
		o.WaitUntil = d.WaitUntil
	}
	return o
}

// Explorer runs discovery against pages obtained from a PageProvider.
// It is safe for concurrent use; every run owns its own page.
type Explorer struct {
	pages PageProvider
	opts  Options
}

// NewExplorer creates an explorer.
func NewExplorer(pages PageProvider, opts Options) *Explorer {
	return &Explorer{
		pages: pages,
		opts:  opts.withDefaults(),
	}
}

// run holds the state owned by one discovery run.
type run struct {
	page     Page
	base     *url.URL
	report   *Report
	budget   *Budget
	baseline *LinkSet
	primary  *LinkSet
	hovered  int

	// hoverEmitted holds links already reported by a hover section. Hover
	// scopes overlap, so one menu item can be hovered more than once.
	hoverEmitted *LinkSet
}

// Discover opens an isolated page, runs every discovery phase against target
// and closes the page. It never returns nil and never panics; failures are
// reported through Report.Errors.
func (e *Explorer) Discover(ctx context.Context, target string, maxLinks int) *Report {
	report := NewReport(target)

	page, err := e.pages.NewPage(ctx)
	if err != nil {
		report.addError(fmt.Sprintf("failed to open browser page: %v", err))
		return report
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			discoveryLog.Warnf("Failed to close page for %s: %v", target, closeErr)
		}
	}()

	e.discoverOn(page, report, maxLinks)
	return report
}

// DiscoverPage runs discovery on a caller-owned page. The page is not closed.
func (e *Explorer) DiscoverPage(page Page, target string, maxLinks int) *Report {
	report := NewReport(target)
	e.discoverOn(page, report, maxLinks)
	return report
}

func (e *Explorer) discoverOn(page Page, report *Report, maxLinks int) {
	defer func() {
		if r := recover(); r != nil {
			discoveryLog.Errorf("Discovery of %s aborted: %v", report.TargetURL, r)
			report.addError(fmt.Sprintf("discovery aborted: %v", r))
		}
	}()

	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}

	start := time.Now()
	st := &run{
		page:         page,
		report:       report,
		budget:       NewBudget(maxLinks),
		hoverEmitted: NewLinkSet(),
	}

	if !e.navigate(st) {
		return
	}

	DismissInterstitial(page, e.opts.VisibilityTimeout)
	e.takeBaseline(st)

	e.scanPrimaryNav(st)
	e.exploreHover(st)
	e.exploreHamburger(st)
	e.scanFooter(st)

	discoveryLog.Infof("Discovered %d links in %d sections on %s (%d errors, %s)",
		report.TotalLinksFound, len(report.Sections), report.TargetURL, len(report.Errors), time.Since(start).Round(time.Millisecond))
}

// navigate loads the target page. A false return means the run is over.
func (e *Explorer) navigate(st *run) bool {
	target, err := url.Parse(st.report.TargetURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		st.report.addError(fmt.Sprintf("invalid target URL %q: must be an absolute URL", st.report.TargetURL))
		return false
	}

	status, err := st.page.Navigate(target.String(), NavigateOptions{
		WaitUntil: e.opts.WaitUntil,
		Timeout:   e.opts.NavigationTimeout,
	})
	if err != nil {
		st.report.addError(fmt.Sprintf("navigation to %s failed: %v", target, err))
		return false
	}
	if status >= 400 {
		st.report.addError(fmt.Sprintf("navigation to %s failed: HTTP status %d", target, status))
		return false
	}

	st.base = target
	if current, parseErr := url.Parse(st.page.URL()); parseErr == nil && current.IsAbs() && current.Host != "" {
		st.base = current
	}

	st.page.Wait(e.opts.LoadSettle)
	return true
}

func (e *Explorer) takeBaseline(st *run) {
	baseline, err := Collect(st.page, DefaultScope, st.base)
	if err != nil {
		st.report.addError(fmt.Sprintf("baseline snapshot failed: %v", err))
	}
	st.baseline = baseline
	discoveryLog.Debugf("Baseline for %s has %d links", st.report.TargetURL, baseline.Len())
}

// scanPrimaryNav merges the anchors of every navigation-shaped region.
func (e *Explorer) scanPrimaryNav(st *run) {
	merged := NewLinkSet()
	for _, scope := range primaryNavScopes {
		set, err := Collect(st.page, scope, st.base)
		if err != nil {
			continue
		}
		merged.Merge(set)
	}

	st.primary = merged
	st.report.addSection(LabelPrimaryNav, merged.Links(), st.budget)
}

// exploreHover hovers each menu-item candidate and records what the hover revealed.
func (e *Explorer) exploreHover(st *run) {
	for _, scope := range hoverScopes {
		if st.budget.Exhausted() {
			return
		}

		candidates := st.page.Locate(scope)
		count, err := candidates.Count()
		if err != nil || count == 0 {
			continue
		}
		if count > e.opts.MaxHoverCandidates {
			count = e.opts.MaxHoverCandidates
		}

		for i := 0; i < count; i++ {
			if st.budget.Exhausted() {
				return
			}
			e.hoverCandidate(st, candidates.Nth(i))
		}
	}
}

// hoverCandidate performs one before/hover/after cycle. Any failure skips the
// candidate without recording an error.
func (e *Explorer) hoverCandidate(st *run, candidate Locator) {
	st.hovered++
	label := e.candidateLabel(candidate, st.hovered)

	before, err := Collect(st.page, DefaultScope, st.base)
	if err != nil {
		return
	}

	if err := candidate.Hover(e.opts.InteractionTimeout); err != nil {
		discoveryLog.Debugf("Hover on %q skipped: %v", label, err)
		return
	}
	st.page.Wait(e.opts.HoverSettle)

	after, err := Collect(st.page, DefaultScope, st.base)
	if err != nil {
		return
	}

	revealed := excluding(e.revealed(st, before, after), st.hoverEmitted)
	if st.report.addSection(label, revealed, st.budget) {
		for _, l := range st.report.Sections[len(st.report.Sections)-1].Links {
			st.hoverEmitted.Add(l)
		}
	}
}

// revealed returns the links an interaction added, ignoring any that were
// already on the page at baseline.
func (e *Explorer) revealed(st *run, before, after *LinkSet) []Link {
	return excluding(Diff(before, after), st.baseline)
}

func (e *Explorer) candidateLabel(candidate Locator, position int) string {
	text, err := candidate.TextContent(e.opts.InteractionTimeout)
	if err == nil {
		if label := CleanLabel(text); label != "" {
			return label
		}
	}
	return fmt.Sprintf("Menu item %d", position)
}

// exploreHamburger engages the first visible menu toggle, if any. It runs even
// with an exhausted budget; the section is then simply dropped.
func (e *Explorer) exploreHamburger(st *run) {
	toggle := e.findVisibleToggle(st.page)
	if toggle == nil {
		return
	}

	before, err := Collect(st.page, DefaultScope, st.base)
	if err != nil {
		return
	}

	if err := toggle.Click(e.opts.InteractionTimeout); err != nil {
		discoveryLog.Debugf("Menu toggle click failed: %v", err)
		return
	}
	st.page.Wait(e.opts.MenuSettle)

	after, err := Collect(st.page, DefaultScope, st.base)
	if err == nil {
		st.report.addSection(LabelHamburger, e.revealed(st, before, after), st.budget)
	}

	// Close the menu so its links do not leak into the footer scan.
	if err := toggle.Click(e.opts.InteractionTimeout); err != nil {
		discoveryLog.Debugf("Menu toggle close failed: %v", err)
		return
	}
	st.page.Wait(e.opts.MenuSettle)
}

func (e *Explorer) findVisibleToggle(page Page) Locator {
	for _, selector := range menuToggleSelectors {
		matches := page.Locate(selector)
		count, err := matches.Count()
		if err != nil || count == 0 {
			continue
		}
		if count > e.opts.MaxToggleCandidates {
			count = e.opts.MaxToggleCandidates
		}

		for i := 0; i < count; i++ {
			candidate := matches.Nth(i)
			visible, visErr := candidate.IsVisible(e.opts.VisibilityTimeout)
			if visErr == nil && visible {
				return candidate
			}
		}
	}
	return nil
}

// scanFooter collects footer anchors that the primary navigation did not already capture.
func (e *Explorer) scanFooter(st *run) {
	if st.budget.Exhausted() {
		return
	}

	if err := st.page.ScrollToBottom(); err != nil {
		st.report.addError(fmt.Sprintf("footer scan: scroll to bottom failed: %v", err))
	}
	st.page.Wait(e.opts.ScrollSettle)

	merged := NewLinkSet()
	for _, scope := range footerScopes {
		set, err := Collect(st.page, scope, st.base)
		if err != nil {
			continue
		}
		merged.Merge(set)
	}

	st.report.addSection(LabelFooter, excluding(merged.Links(), st.primary), st.budget)
}
