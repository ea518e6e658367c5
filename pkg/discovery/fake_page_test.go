package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// fakeAnchor is an anchor that matches some scopes and may only exist while
// a given interaction state is active.
type fakeAnchor struct {
	Anchor
	scopes []string
	needs  string
}

// fakeElement is an interactive element returned by Locate.
type fakeElement struct {
	text      string
	visible   bool
	hover     string // state activated while hovered
	toggle    string // state flipped on click
	failHover bool
	failClick bool
}

// fakePage is an in-memory Page. Hovering an element replaces the current
// hover state; clicking flips the element's toggle state.
type fakePage struct {
	navStatus int
	navErr    error
	finalURL  string
	anchors   []fakeAnchor
	elements  map[string][]*fakeElement
	queryErr  map[string]error
	scrollErr error
	panicOn   string

	navigatedTo string
	hoverState  string
	toggled     map[string]bool
	scrolled    bool
	closed      bool
	clicks      int
	hovers      int
	waits       []time.Duration
}

func newFakePage() *fakePage {
	return &fakePage{
		navStatus: 200,
		elements:  make(map[string][]*fakeElement),
		queryErr:  make(map[string]error),
		toggled:   make(map[string]bool),
	}
}

// link registers an anchor visible in DefaultScope and every extra scope.
func (p *fakePage) link(href, text string, scopes ...string) *fakePage {
	p.anchors = append(p.anchors, fakeAnchor{
		Anchor: Anchor{Href: href, Text: text},
		scopes: append([]string{DefaultScope}, scopes...),
	})
	return p
}

// hidden registers an anchor that only exists while state is active.
func (p *fakePage) hidden(state, href, text string, scopes ...string) *fakePage {
	p.anchors = append(p.anchors, fakeAnchor{
		Anchor: Anchor{Href: href, Text: text},
		scopes: append([]string{DefaultScope}, scopes...),
		needs:  state,
	})
	return p
}

func (p *fakePage) element(selector string, el *fakeElement) *fakePage {
	p.elements[selector] = append(p.elements[selector], el)
	return p
}

func (p *fakePage) active(state string) bool {
	return state == "" || state == p.hoverState || p.toggled[state]
}

func (p *fakePage) Navigate(url string, opts NavigateOptions) (int, error) {
	p.navigatedTo = url
	if p.navErr != nil {
		return 0, p.navErr
	}
	return p.navStatus, nil
}

func (p *fakePage) URL() string {
	if p.finalURL != "" {
		return p.finalURL
	}
	return p.navigatedTo
}

func (p *fakePage) QueryLinks(scope string) ([]Anchor, error) {
	if scope == p.panicOn {
		panic("query exploded")
	}
	if err := p.queryErr[scope]; err != nil {
		return nil, err
	}
	var out []Anchor
	for _, a := range p.anchors {
		if !p.active(a.needs) {
			continue
		}
		for _, s := range a.scopes {
			if s == scope {
				out = append(out, a.Anchor)
				break
			}
		}
	}
	return out, nil
}

func (p *fakePage) Locate(selector string) Locator {
	return &fakeLocator{page: p, selector: selector, index: -1}
}

func (p *fakePage) ScrollToBottom() error {
	if p.scrollErr != nil {
		return p.scrollErr
	}
	p.scrolled = true
	return nil
}

func (p *fakePage) Wait(d time.Duration) {
	p.waits = append(p.waits, d)
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeLocator struct {
	page     *fakePage
	selector string
	index    int
}

func (l *fakeLocator) target() *fakeElement {
	els := l.page.elements[l.selector]
	i := l.index
	if i < 0 {
		i = 0
	}
	if i >= len(els) {
		return nil
	}
	return els[i]
}

func (l *fakeLocator) Count() (int, error) {
	return len(l.page.elements[l.selector]), nil
}

func (l *fakeLocator) Nth(i int) Locator {
	return &fakeLocator{page: l.page, selector: l.selector, index: i}
}

func (l *fakeLocator) IsVisible(timeout time.Duration) (bool, error) {
	el := l.target()
	if el == nil {
		return false, nil
	}
	return el.visible, nil
}

func (l *fakeLocator) Hover(timeout time.Duration) error {
	el := l.target()
	if el == nil {
		return errors.New("element not found")
	}
	if el.failHover {
		return fmt.Errorf("hover timed out after %s", timeout)
	}
	l.page.hovers++
	l.page.hoverState = el.hover
	return nil
}

func (l *fakeLocator) Click(timeout time.Duration) error {
	el := l.target()
	if el == nil {
		return errors.New("element not found")
	}
	if el.failClick {
		return fmt.Errorf("click timed out after %s", timeout)
	}
	l.page.clicks++
	if el.toggle != "" {
		l.page.toggled[el.toggle] = !l.page.toggled[el.toggle]
	}
	return nil
}

func (l *fakeLocator) TextContent(timeout time.Duration) (string, error) {
	el := l.target()
	if el == nil {
		return "", errors.New("element not found")
	}
	return el.text, nil
}

type fakeProvider struct {
	page *fakePage
	err  error
}

func (f *fakeProvider) NewPage(ctx context.Context) (Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}
