package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/entrhq/scout/pkg/discovery"
)

// ExtractLinks returns the distinct navigable links of a static HTML
// document, in document order. Hrefs are resolved against base, or against
// the document's <base href> when it declares one, using the same rules as a
// discovery run.
func ExtractLinks(rawHTML string, base *url.URL) ([]discovery.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if declared, parseErr := base.Parse(strings.TrimSpace(href)); parseErr == nil {
			base = declared
		}
	}

	set := discovery.NewLinkSet()
	doc.Find(discovery.DefaultScope).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := discovery.NormalizeAnchor(discovery.Anchor{Href: href, Text: s.Text()}, base); ok {
			set.Add(link)
		}
	})
	return set.Links(), nil
}
