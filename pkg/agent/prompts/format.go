package prompts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/scout/pkg/agent/tools"
)

// FormatToolSchema renders one tool's name, description, parameters and a
// usage example for the system prompt.
func FormatToolSchema(tool tools.Tool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n", tool.Name())
	if tool.IsLoopBreaking() {
		b.WriteString("(loop-breaking: calling this ends the research run)\n")
	}
	b.WriteString(tool.Description())
	b.WriteString("\n\nParameters:\n")

	schema := tool.Schema()
	properties, _ := schema["properties"].(map[string]interface{}) //nolint:errcheck
	required := requiredSet(schema)

	if len(properties) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, name := range sortedKeys(properties) {
		prop, _ := properties[name].(map[string]interface{}) //nolint:errcheck
		propType, _ := prop["type"].(string)                 //nolint:errcheck
		description, _ := prop["description"].(string)      //nolint:errcheck

		flag := "optional"
		if required[name] {
			flag = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s): %s\n", name, propType, flag, description)
	}

	b.WriteString("\nExample:\n")
	if provider, ok := tool.(XMLExampleProvider); ok {
		b.WriteString(provider.XMLExample())
	} else {
		b.WriteString(GenerateXMLExample(schema, tool.Name()))
	}
	b.WriteString("\n")

	return b.String()
}

// FormatToolSchemas renders every tool for the system prompt.
func FormatToolSchemas(toolsList []tools.Tool) string {
	if len(toolsList) == 0 {
		return "No tools available.\n"
	}

	var b strings.Builder
	b.WriteString("# AVAILABLE TOOLS\n\n")
	for _, tool := range toolsList {
		b.WriteString(FormatToolSchema(tool))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatToolForLLM returns a tool in the function-definition shape used by
// JSON tool-calling APIs.
func FormatToolForLLM(tool tools.Tool) map[string]interface{} {
	return map[string]interface{}{
		"name":        tool.Name(),
		"description": tool.Description(),
		"parameters":  tool.Schema(),
	}
}

// SchemaToJSON renders a schema as indented JSON.
func SchemaToJSON(schema map[string]interface{}) (string, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	set := make(map[string]bool)
	if req, ok := schema["required"].([]string); ok {
		for _, field := range req {
			set[field] = true
		}
	}
	return set
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
