package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/scout/pkg/discovery"
	"github.com/playwright-community/playwright-go"
)

// queryLinksScript reads href and visible text from every matched element.
const queryLinksScript = `els => els.map(el => ({
	href: el.getAttribute('href') || '',
	text: el.innerText || el.textContent || ''
}))`

const scrollToBottomScript = `() => window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`

var (
	_ discovery.Page    = (*Page)(nil)
	_ discovery.Locator = (*locator)(nil)
)

// Page is one isolated browser page. It satisfies discovery.Page and adds the
// content accessors the research tools need. A Page is not safe for
// concurrent use.
type Page struct {
	page      playwright.Page
	context   playwright.BrowserContext
	release   func()
	closeOnce sync.Once
}

func newPage(page playwright.Page, browserContext playwright.BrowserContext, release func()) *Page {
	return &Page{
		page:    page,
		context: browserContext,
		release: release,
	}
}

// Navigate loads url and returns the main document status, or 0 when the
// navigation produced no response.
func (p *Page) Navigate(url string, opts discovery.NavigateOptions) (int, error) {
	resp, err := p.page.Goto(url, gotoOptions(opts))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return resp.Status(), nil
}

// gotoOptions converts navigation settings into Playwright goto options.
func gotoOptions(opts discovery.NavigateOptions) playwright.PageGotoOptions {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(milliseconds(opts.Timeout))
	}
	return gotoOpts
}

// URL returns the current document URL.
func (p *Page) URL() string {
	return p.page.URL()
}

// Title returns the document title.
func (p *Page) Title() (string, error) {
	return p.page.Title()
}

// Content returns the serialized DOM of the current document.
func (p *Page) Content() (string, error) {
	return p.page.Content()
}

// QueryLinks returns href/text pairs for every element matching scope.
func (p *Page) QueryLinks(scope string) ([]discovery.Anchor, error) {
	raw, err := p.page.Locator(scope).EvaluateAll(queryLinksScript)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", scope, err)
	}
	return decodeAnchors(raw)
}

// decodeAnchors converts the loosely typed script result into anchors.
func decodeAnchors(raw interface{}) ([]discovery.Anchor, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anchors: %w", err)
	}
	var anchors []discovery.Anchor
	if err := json.Unmarshal(data, &anchors); err != nil {
		return nil, fmt.Errorf("failed to decode anchors: %w", err)
	}
	return anchors, nil
}

// Locate returns a lazy handle for elements matching selector.
func (p *Page) Locate(selector string) discovery.Locator {
	return &locator{loc: p.page.Locator(selector)}
}

// ScrollToBottom scrolls the document to its end.
func (p *Page) ScrollToBottom() error {
	if _, err := p.page.Evaluate(scrollToBottomScript); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// Wait blocks for d.
func (p *Page) Wait(d time.Duration) {
	if d <= 0 {
		return
	}
	p.page.WaitForTimeout(milliseconds(d))
}

// Close closes the page and its context and frees the manager slot.
// Safe to call multiple times.
func (p *Page) Close() error {
	var err error
	p.closeOnce.Do(func() {
		var errs []error
		if closeErr := p.page.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", closeErr))
		}
		if closeErr := p.context.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", closeErr))
		}
		if p.release != nil {
			p.release()
		}
		err = errors.Join(errs...)
	})
	return err
}

// locator adapts a playwright.Locator to discovery.Locator.
type locator struct {
	loc playwright.Locator
}

func (l *locator) Count() (int, error) {
	return l.loc.Count()
}

func (l *locator) Nth(i int) discovery.Locator {
	return &locator{loc: l.loc.Nth(i)}
}

// IsVisible waits up to timeout for the element to become visible. A timeout
// is reported as not visible rather than as an error.
func (l *locator) IsVisible(timeout time.Duration) (bool, error) {
	err := l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	return false, err
}

func (l *locator) Hover(timeout time.Duration) error {
	return l.loc.Hover(playwright.LocatorHoverOptions{
		Timeout: playwright.Float(milliseconds(timeout)),
	})
}

func (l *locator) Click(timeout time.Duration) error {
	return l.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(milliseconds(timeout)),
	})
}

func (l *locator) TextContent(timeout time.Duration) (string, error) {
	return l.loc.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(milliseconds(timeout)),
	})
}
