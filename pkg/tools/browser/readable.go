package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ReadableContent is the text rendition of a page with its metadata.
type ReadableContent struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// ReadableText converts raw HTML into compact, markdown-flavoured text.
// Scripts, styles and embedded media are dropped. Headings become "#" lines,
// list items become "- " lines and block elements are separated by newlines.
// Output is cut at maxChars runes when maxChars is positive.
func ReadableText(rawHTML string, maxChars int) (*ReadableContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &ReadableContent{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
	}

	w := &textWriter{}
	if body := findElement(doc, "body"); body != nil {
		w.walk(body)
	} else {
		w.walk(doc)
	}

	text := w.String()
	if maxChars > 0 {
		runes := []rune(text)
		if len(runes) > maxChars {
			text = strings.TrimSpace(string(runes[:maxChars])) + "..."
			result.Truncated = true
		}
	}
	result.Text = text
	return result, nil
}

// textWriter accumulates text while collapsing whitespace between blocks.
type textWriter struct {
	b         strings.Builder
	lineStart bool
	pendingNL int
}

func (w *textWriter) String() string {
	return strings.TrimSpace(w.b.String())
}

// block requests at least n newlines before the next text.
func (w *textWriter) block(n int) {
	if n > w.pendingNL {
		w.pendingNL = n
	}
}

func (w *textWriter) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		// Whitespace between inline elements still separates words
		if s != "" && w.b.Len() > 0 && !w.lineStart && w.pendingNL == 0 {
			w.pendingNL = -1
		}
		return
	}

	switch {
	case w.b.Len() == 0:
	case w.pendingNL > 0:
		w.b.WriteString(strings.Repeat("\n", w.pendingNL))
		w.lineStart = true
	case w.pendingNL < 0 || startsWithSpace(s):
		if !w.lineStart {
			w.b.WriteByte(' ')
		}
	}
	w.pendingNL = 0

	w.b.WriteString(strings.Join(words, " "))
	w.lineStart = false
	if endsWithSpace(s) {
		w.pendingNL = -1
	}
}

// prefix writes a line marker such as "# " or "- " at the start of a block.
func (w *textWriter) prefix(p string) {
	if w.b.Len() > 0 {
		n := w.pendingNL
		if n < 1 {
			n = 1
		}
		w.b.WriteString(strings.Repeat("\n", n))
	}
	w.b.WriteString(p)
	w.pendingNL = 0
	w.lineStart = true
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) {
			return
		}
		switch {
		case headingLevel(tag) > 0:
			w.block(2)
			w.prefix(strings.Repeat("#", headingLevel(tag)) + " ")
			w.children(n)
			w.block(2)
			return
		case tag == "li":
			w.block(1)
			w.prefix("- ")
			w.children(n)
			w.block(1)
			return
		case tag == "br":
			w.block(1)
			return
		case isBlockElement(tag):
			w.block(2)
			w.children(n)
			w.block(2)
			return
		}
	}
	w.children(n)
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// isSkippedElement returns true for elements that carry no readable text
func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template", "head":
		return true
	}
	return false
}

// isBlockElement returns true for block-level elements (for formatting)
func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"ul", "ol", "table", "tr", "form", "fieldset", "blockquote", "pre", "figure", "dl", "dt", "dd":
		return true
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// extractTitle extracts the page title from the document
func extractTitle(doc *html.Node) string {
	title := findElement(doc, "title")
	if title == nil || title.FirstChild == nil || title.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(title.FirstChild.Data)
}

// extractMetaDescription extracts the meta description from the document
func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && strings.EqualFold(attr.Val, "description") {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
