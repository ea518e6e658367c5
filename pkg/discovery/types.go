package discovery

// DefaultMaxLinks is the link budget used when a caller passes a non-positive limit.
const DefaultMaxLinks = 50

// Link is a navigable destination found on a page. URL is always an absolute URI.
type Link struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// LinkSet holds links keyed by URL. The first label seen for a URL wins.
// Iteration follows insertion order so snapshots diff deterministically.
type LinkSet struct {
	order []string
	links map[string]Link
}

// NewLinkSet creates an empty set.
func NewLinkSet() *LinkSet {
	return &LinkSet{links: make(map[string]Link)}
}

// Add inserts l unless its URL is already present. It reports whether l was added.
func (s *LinkSet) Add(l Link) bool {
	if _, exists := s.links[l.URL]; exists {
		return false
	}
	s.links[l.URL] = l
	s.order = append(s.order, l.URL)
	return true
}

// Merge adds every link of other, keeping existing labels.
func (s *LinkSet) Merge(other *LinkSet) {
	for _, l := range other.Links() {
		s.Add(l)
	}
}

// Has reports whether url is in the set.
func (s *LinkSet) Has(url string) bool {
	if s == nil {
		return false
	}
	_, ok := s.links[url]
	return ok
}

// Len returns the number of links.
func (s *LinkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Links returns the links in insertion order.
func (s *LinkSet) Links() []Link {
	if s == nil {
		return nil
	}
	out := make([]Link, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, s.links[u])
	}
	return out
}

// Section is the labeled contribution of one phase or one interaction.
type Section struct {
	Label string `json:"label"`
	Links []Link `json:"links"`
}

// Report is the result of one discovery run. It is always returned, even
// when the run failed, so partial progress is never lost.
type Report struct {
	TargetURL       string    `json:"target_url"`
	TotalLinksFound int       `json:"total_links_found"`
	Sections        []Section `json:"sections"`
	Errors          []string  `json:"errors"`
}

// NewReport creates an empty report for target.
func NewReport(target string) *Report {
	return &Report{
		TargetURL: target,
		Sections:  []Section{},
		Errors:    []string{},
	}
}

// addSection appends a section holding as many of links as the budget allows.
// Nothing is appended when no link survives, so sections are never empty.
func (r *Report) addSection(label string, links []Link, budget *Budget) bool {
	accepted := budget.take(links)
	if len(accepted) == 0 {
		return false
	}
	r.Sections = append(r.Sections, Section{Label: label, Links: accepted})
	r.TotalLinksFound += len(accepted)
	return true
}

func (r *Report) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Budget is the run-wide link allowance shared by every phase.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget of limit links. A negative limit is treated as zero.
func NewBudget(limit int) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

// Remaining returns how many links may still be accepted.
func (b *Budget) Remaining() int {
	return b.limit - b.used
}

// Exhausted reports whether no further links may be accepted.
func (b *Budget) Exhausted() bool {
	return b.Remaining() <= 0
}

// Used returns how many links have been accepted.
func (b *Budget) Used() int {
	return b.used
}

// take returns the prefix of links that fits in the remaining allowance and consumes it.
func (b *Budget) take(links []Link) []Link {
	remaining := b.Remaining()
	if remaining <= 0 || len(links) == 0 {
		return nil
	}
	if len(links) > remaining {
		links = links[:remaining]
	}
	accepted := make([]Link, len(links))
	copy(accepted, links)
	b.used += len(accepted)
	return accepted
}
