package research

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/entrhq/scout/pkg/discovery"
)

// fakeSite serves in-memory pages keyed by URL.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]*fakeDoc
	openErr error
	opened  int
	closed  int
}

type fakeDoc struct {
	status   int
	navErr   error
	redirect string
	title    string
	html     string
	anchors  map[string][]discovery.Anchor
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: make(map[string]*fakeDoc)}
}

func (s *fakeSite) add(url string, doc *fakeDoc) *fakeSite {
	if doc.status == 0 {
		doc.status = 200
	}
	s.pages[url] = doc
	return s
}

func (s *fakeSite) NewPage(ctx context.Context) (discovery.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened++
	return &fakeBrowserPage{site: s}, nil
}

func (s *fakeSite) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// fakeBrowserPage implements contentPage over a fakeSite.
type fakeBrowserPage struct {
	site    *fakeSite
	current *fakeDoc
	url     string
}

func (p *fakeBrowserPage) Navigate(url string, _ discovery.NavigateOptions) (int, error) {
	doc, ok := p.site.pages[url]
	if !ok {
		return 404, nil
	}
	if doc.navErr != nil {
		return 0, doc.navErr
	}
	p.current = doc
	p.url = url
	if doc.redirect != "" {
		p.url = doc.redirect
	}
	return doc.status, nil
}

func (p *fakeBrowserPage) URL() string { return p.url }

func (p *fakeBrowserPage) Title() (string, error) {
	if p.current == nil {
		return "", errors.New("no document")
	}
	return p.current.title, nil
}

func (p *fakeBrowserPage) Content() (string, error) {
	if p.current == nil {
		return "", errors.New("no document")
	}
	return p.current.html, nil
}

func (p *fakeBrowserPage) QueryLinks(scope string) ([]discovery.Anchor, error) {
	if p.current == nil {
		return nil, errors.New("no document")
	}
	return p.current.anchors[scope], nil
}

func (p *fakeBrowserPage) Locate(string) discovery.Locator { return emptyLocator{} }
func (p *fakeBrowserPage) ScrollToBottom() error          { return nil }
func (p *fakeBrowserPage) Wait(time.Duration)             {}

func (p *fakeBrowserPage) Close() error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.closed++
	return nil
}

// emptyLocator matches nothing.
type emptyLocator struct{}

func (emptyLocator) Count() (int, error)                       { return 0, nil }
func (emptyLocator) Nth(int) discovery.Locator                 { return emptyLocator{} }
func (emptyLocator) IsVisible(time.Duration) (bool, error)     { return false, nil }
func (emptyLocator) Hover(time.Duration) error                 { return errors.New("no element") }
func (emptyLocator) Click(time.Duration) error                 { return errors.New("no element") }
func (emptyLocator) TextContent(time.Duration) (string, error) { return "", errors.New("no element") }

// bareProvider hands out pages that cannot expose their content.
type bareProvider struct{}

func (bareProvider) NewPage(context.Context) (discovery.Page, error) {
	return barePage{}, nil
}

// barePage implements discovery.Page only.
type barePage struct{}

func (barePage) Navigate(string, discovery.NavigateOptions) (int, error) { return 200, nil }
func (barePage) URL() string                                             { return "" }
func (barePage) QueryLinks(string) ([]discovery.Anchor, error)           { return nil, nil }
func (barePage) Locate(string) discovery.Locator                         { return emptyLocator{} }
func (barePage) ScrollToBottom() error                                   { return nil }
func (barePage) Wait(time.Duration)                                      {}
func (barePage) Close() error                                            { return nil }
