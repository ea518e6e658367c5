// Package report renders discovery results as markdown and persists research
// reports to disk.
package report

import (
	"fmt"
	"strings"

	"github.com/entrhq/scout/pkg/discovery"
)

// Render formats a discovery report as a markdown section. Links become
// markdown links labelled with their cleaned text, or the bare URL when the
// label is empty.
func Render(r *discovery.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n\n", r.TargetURL)
	fmt.Fprintf(&b, "%d links discovered across %d sections.\n", r.TotalLinksFound, len(r.Sections))

	for _, section := range r.Sections {
		fmt.Fprintf(&b, "\n#### %s\n\n", section.Label)
		for _, link := range section.Links {
			fmt.Fprintf(&b, "- %s\n", markdownLink(link))
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n**Errors**\n\n")
		for _, msg := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
	}

	return b.String()
}

// Appendix renders several discovery reports under one heading, in the order given.
func Appendix(reports []*discovery.Report) string {
	if len(reports) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Discovered navigation\n")
	for _, r := range reports {
		b.WriteString("\n")
		b.WriteString(Render(r))
	}
	return b.String()
}

func markdownLink(l discovery.Link) string {
	if l.Label == "" {
		return fmt.Sprintf("<%s>", l.URL)
	}
	label := strings.NewReplacer("[", `\[`, "]", `\]`).Replace(l.Label)
	return fmt.Sprintf("[%s](%s)", label, l.URL)
}
