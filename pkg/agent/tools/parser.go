package tools

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	defaultServerName = "local"
	maxXMLSize        = 10 * 1024 * 1024 // 10MB limit for XML tool calls
	argumentsTagName  = "arguments"
)

// ErrNoToolCall is returned by ParseToolCall when the text holds no <tool> element.
var ErrNoToolCall = errors.New("no tool call found in text")

var toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

// thinkingRegex matches reasoning blocks some models emit before acting.
var thinkingRegex = regexp.MustCompile(`(?s)<thinking>.*?(?:</thinking>|$)`)

// ampersandEntityRegex matches ampersands that are already part of XML entities
// to avoid double-escaping them. Matches: &amp; &lt; &gt; &quot; &apos; &#123; &#xAB;
var ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)

// ParseToolCall extracts the first tool call from an LLM response.
//
// Expected format:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>search_links</tool_name>
//	<arguments>
//	  <url>https://example.com</url>
//	  <keywords>pricing, plans</keywords>
//	</arguments>
//	</tool>
//
// Returns the parsed ToolCall and the remaining prose with every tool call and
// reasoning block removed. Text without a tool call yields ErrNoToolCall.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	visible := StripThinking(text)
	toolXML := toolRegex.FindString(visible)
	if toolXML == "" {
		return nil, visible, ErrNoToolCall
	}

	var toolCall ToolCall
	if err := UnmarshalXMLWithFallback([]byte(strings.TrimSpace(toolXML)), &toolCall); err != nil {
		snippet := toolXML
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, visible, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, snippet)
	}

	toolCall.ToolName = strings.TrimSpace(toolCall.ToolName)
	if toolCall.ToolName == "" {
		return nil, visible, fmt.Errorf("tool_name is required in tool call")
	}

	if toolCall.ServerName == "" {
		toolCall.ServerName = defaultServerName
	}

	remaining := strings.TrimSpace(toolRegex.ReplaceAllString(visible, ""))
	return &toolCall, remaining, nil
}

// StripThinking removes <thinking> blocks, including an unterminated trailing one.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkingRegex.ReplaceAllString(text, ""))
}

// HasToolCall checks if the text contains a tool call.
func HasToolCall(text string) bool {
	return toolRegex.MatchString(StripThinking(text))
}

// UnmarshalXMLWithFallback attempts to unmarshal XML, with fallback to
// escape unescaped ampersands if the initial parse fails. URLs with query
// strings are the usual offender.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands replaces bare & with &amp; while preserving
// existing entities (&amp;, &lt;, &gt;, &quot;, &apos;, &#..;)
func escapeUnescapedAmpersands(data []byte) []byte {
	text := string(data)

	entityPositions := make(map[int]bool)
	for _, match := range ampersandEntityRegex.FindAllStringIndex(text, -1) {
		entityPositions[match[0]] = true
	}

	var result strings.Builder
	result.Grow(len(text) + 20)

	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityPositions[i] {
			result.WriteString("&amp;")
		} else {
			result.WriteByte(text[i])
		}
	}

	return []byte(result.String())
}

// XMLToMap converts the direct children of an <arguments> element into a
// map of element name to trimmed text. It feeds tool call events.
func XMLToMap(data []byte) (map[string]interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	result := make(map[string]interface{})

	var currentPath []string
	var currentText strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			currentPath = append(currentPath, t.Name.Local)
			currentText.Reset()

		case xml.EndElement:
			if len(currentPath) == 0 {
				continue
			}

			elementName := currentPath[len(currentPath)-1]
			currentPath = currentPath[:len(currentPath)-1]

			if len(currentPath) == 1 && currentPath[0] == argumentsTagName {
				if text := strings.TrimSpace(currentText.String()); text != "" {
					result[elementName] = text
				}
			}
			currentText.Reset()

		case xml.CharData:
			currentText.Write(t)
		}
	}

	return result, nil
}
