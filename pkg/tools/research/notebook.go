// Package research provides the tools the research agent uses to read
// competitor pages, search their links, uncover hidden navigation and write
// the final report.
package research

import (
	"sync"

	"github.com/entrhq/scout/pkg/discovery"
)

// Visit records a page fetched during a run.
type Visit struct {
	URL   string
	Title string
}

// Notebook collects what the tools found during one research run so the
// final report can cite it. It is safe for concurrent use.
type Notebook struct {
	mu          sync.Mutex
	visits      []Visit
	visited     map[string]bool
	discoveries []*discovery.Report
	byTarget    map[string]int
}

// NewNotebook creates an empty notebook.
func NewNotebook() *Notebook {
	return &Notebook{
		visited:  make(map[string]bool),
		byTarget: make(map[string]int),
	}
}

// AddVisit records a fetched page. Repeat visits are ignored.
func (n *Notebook) AddVisit(url, title string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.visited[url] {
		return
	}
	n.visited[url] = true
	n.visits = append(n.visits, Visit{URL: url, Title: title})
}

// AddDiscovery records a discovery report. A later run for the same target
// replaces the earlier one in place.
func (n *Notebook) AddDiscovery(r *discovery.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if i, ok := n.byTarget[r.TargetURL]; ok {
		n.discoveries[i] = r
		return
	}
	n.byTarget[r.TargetURL] = len(n.discoveries)
	n.discoveries = append(n.discoveries, r)
}

// Visits returns the fetched pages in visit order.
func (n *Notebook) Visits() []Visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Visit(nil), n.visits...)
}

// Discoveries returns the discovery reports in first-run order.
func (n *Notebook) Discoveries() []*discovery.Report {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*discovery.Report(nil), n.discoveries...)
}
