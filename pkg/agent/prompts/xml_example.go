package prompts

import (
	"fmt"
	"strings"
)

// XMLExampleProvider is an optional interface that tools can implement
// to provide custom XML usage examples
type XMLExampleProvider interface {
	XMLExample() string
}

// GenerateXMLExample creates a concrete XML call example from a tool schema.
// Only required parameters are shown, in name order.
func GenerateXMLExample(schema map[string]interface{}, toolName string) string {
	var builder strings.Builder

	builder.WriteString("<tool>\n")
	builder.WriteString("<server_name>local</server_name>\n")
	fmt.Fprintf(&builder, "<tool_name>%s</tool_name>\n", toolName)
	builder.WriteString("<arguments>\n")

	properties, _ := schema["properties"].(map[string]interface{}) //nolint:errcheck
	required := requiredSet(schema)

	for _, name := range sortedKeys(properties) {
		if !required[name] {
			continue
		}
		prop, ok := properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		builder.WriteString(generatePropertyExample(name, prop, "  "))
	}

	builder.WriteString("</arguments>\n")
	builder.WriteString("</tool>")

	return builder.String()
}

// generatePropertyExample creates an XML example for a single property
func generatePropertyExample(name string, propSchema map[string]interface{}, indent string) string {
	propType, _ := propSchema["type"].(string) //nolint:errcheck

	var value string
	switch propType {
	case "integer":
		value = "10"
	case "number":
		value = "0.5"
	case "boolean":
		value = "true"
	case "array":
		singular := strings.TrimSuffix(name, "s")
		return fmt.Sprintf("%s<%s>\n%s  <%s>item1</%s>\n%s  <%s>item2</%s>\n%s</%s>\n",
			indent, name, indent, singular, singular, indent, singular, singular, indent, name)
	default:
		value = stringExample(name, propSchema)
	}

	return fmt.Sprintf("%s<%s>%s</%s>\n", indent, name, value, name)
}

// stringExample picks a plausible value so the example reads like a real call.
func stringExample(name string, propSchema map[string]interface{}) string {
	if enum, ok := propSchema["enum"].([]interface{}); ok && len(enum) > 0 {
		if str, ok := enum[0].(string); ok {
			return str
		}
	}

	switch {
	case name == "url" || strings.HasSuffix(name, "_url"):
		return "https://example.com"
	case strings.Contains(name, "content"):
		return "# Heading &amp; details"
	default:
		return "value"
	}
}
