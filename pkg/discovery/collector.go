package discovery

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultScope selects every anchor that carries an href.
const DefaultScope = "a[href]"

// MaxLabelLength caps link labels, in characters.
const MaxLabelLength = 120

// excludedPrefixes are href schemes that never navigate to a page.
var excludedPrefixes = []string{"javascript:", "mailto:", "tel:"}

// Collect reads the anchors matching scope and normalizes them into a LinkSet
// resolved against base. Hrefs that are excluded or do not resolve are skipped
// silently. An error is returned only when the DOM query itself fails; the
// returned set is then empty but usable.
func Collect(page Page, scope string, base *url.URL) (*LinkSet, error) {
	if scope == "" {
		scope = DefaultScope
	}

	set := NewLinkSet()
	anchors, err := page.QueryLinks(scope)
	if err != nil {
		return set, err
	}

	for _, a := range anchors {
		if link, ok := NormalizeAnchor(a, base); ok {
			set.Add(link)
		}
	}
	return set, nil
}

// NormalizeAnchor turns a raw anchor into a Link. It reports false when the
// href is empty, non-navigable or cannot be resolved to an absolute URI.
func NormalizeAnchor(a Anchor, base *url.URL) (Link, bool) {
	resolved, ok := ResolveHref(a.Href, base)
	if !ok {
		return Link{}, false
	}
	return Link{URL: resolved, Label: CleanLabel(a.Text)}, true
}

// ResolveHref resolves href against base and returns the canonical absolute URI.
func ResolveHref(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", false
	}

	lower := strings.ToLower(href)
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	var (
		u   *url.URL
		err error
	)
	if base != nil {
		u, err = base.Parse(href)
	} else {
		u, err = url.Parse(href)
	}
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// CleanLabel collapses internal whitespace and truncates to MaxLabelLength characters.
func CleanLabel(text string) string {
	label := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	runes := []rune(label)
	return strings.TrimSpace(string(runes[:MaxLabelLength]))
}
