package discovery

import (
	"fmt"
	"strings"
)

// Summarize renders a report as plain text for humans and LLMs. The output is
// fully determined by the report's contents.
func Summarize(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Navigation discovery for %s\n", r.TargetURL)
	fmt.Fprintf(&b, "Total links found: %d\n", r.TotalLinksFound)

	if len(r.Sections) == 0 {
		b.WriteString("\nNo links discovered.\n")
	}

	for _, section := range r.Sections {
		fmt.Fprintf(&b, "\n## %s (%d)\n", section.Label, len(section.Links))
		for _, link := range section.Links {
			if link.Label == "" {
				fmt.Fprintf(&b, "- %s\n", link.URL)
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", link.Label, link.URL)
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, msg := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
	}

	return b.String()
}
