package prompts

import (
	"fmt"
	"strings"

	"github.com/entrhq/scout/pkg/agent/tools"
)

// ErrorType classifies a failed iteration for the recovery message.
type ErrorType int

const (
	ErrorTypeNoToolCall ErrorType = iota
	ErrorTypeInvalidXML
	ErrorTypeUnknownTool
	ErrorTypeToolExecution
)

// ErrorRecoveryContext carries what the model needs to correct itself.
type ErrorRecoveryContext struct {
	Type           ErrorType
	ToolName       string
	Error          error
	AvailableTools []tools.Tool
}

// BuildErrorRecoveryMessage builds the ephemeral user message sent after a
// failed iteration so the model can correct its next call.
func BuildErrorRecoveryMessage(ctx ErrorRecoveryContext) string {
	var b strings.Builder
	b.WriteString("<error>\n")

	switch ctx.Type {
	case ErrorTypeNoToolCall:
		b.WriteString("Your last response did not contain a tool call. ")
		b.WriteString("Respond with exactly one <tool> element.")
	case ErrorTypeInvalidXML:
		fmt.Fprintf(&b, "Your last tool call could not be parsed: %v\n", ctx.Error)
		b.WriteString("Check that every tag is closed and special characters are escaped.")
	case ErrorTypeUnknownTool:
		fmt.Fprintf(&b, "There is no tool named %q.", ctx.ToolName)
		if len(ctx.AvailableTools) > 0 {
			names := make([]string, 0, len(ctx.AvailableTools))
			for _, t := range ctx.AvailableTools {
				names = append(names, t.Name())
			}
			fmt.Fprintf(&b, " Available tools: %s.", strings.Join(names, ", "))
		}
	case ErrorTypeToolExecution:
		fmt.Fprintf(&b, "Tool %q failed: %v\n", ctx.ToolName, ctx.Error)
		b.WriteString("Fix the arguments or try a different approach.")
	}

	b.WriteString("\n</error>")
	return b.String()
}
