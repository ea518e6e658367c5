package prompts

import (
	"strings"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/types"
)

// PromptBuilder constructs the system prompt for a research run
type PromptBuilder struct {
	tools              []tools.Tool
	customInstructions string
	maxIterations      int
}

// NewPromptBuilder creates a new prompt builder with default settings
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		tools: []tools.Tool{},
	}
}

// WithTools sets the available tools for the agent
func (pb *PromptBuilder) WithTools(toolsList []tools.Tool) *PromptBuilder {
	pb.tools = toolsList
	return pb
}

// WithCustomInstructions adds operator-provided instructions, e.g. the
// house style for reports.
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.customInstructions = instructions
	return pb
}

// WithIterationBudget tells the model how many tool calls it has.
func (pb *PromptBuilder) WithIterationBudget(maxIterations int) *PromptBuilder {
	pb.maxIterations = maxIterations
	return pb
}

// Build constructs the complete system prompt by assembling all sections
func (pb *PromptBuilder) Build() string {
	var builder strings.Builder

	if pb.customInstructions != "" {
		builder.WriteString("<custom_instructions>\n")
		builder.WriteString(pb.customInstructions)
		builder.WriteString("\n</custom_instructions>\n\n")
	}

	builder.WriteString(ResearchRolePrompt)
	builder.WriteString("\n\n")

	builder.WriteString(AgentLoopPrompt)
	builder.WriteString("\n\n")

	if pb.maxIterations > 0 {
		builder.WriteString(IterationBudgetSection(pb.maxIterations))
		builder.WriteString("\n\n")
	}

	builder.WriteString(ToolCallingPrompt)
	builder.WriteString("\n\n")

	if len(pb.tools) > 0 {
		builder.WriteString("<available_tools>\n")
		builder.WriteString(FormatToolSchemas(pb.tools))
		builder.WriteString("</available_tools>\n\n")
	}

	builder.WriteString(ResearchMethodPrompt)

	return builder.String()
}

// BuildMessages creates a complete message list including system prompt and conversation history.
// The errorContext parameter passes an ephemeral recovery message to the model
// for one iteration without storing it in history.
func BuildMessages(systemPrompt string, history []*types.Message, userMessage string, errorContext string) []*types.Message {
	messages := make([]*types.Message, 0, len(history)+3)

	messages = append(messages, types.NewSystemMessage(systemPrompt))

	// Skip any existing system messages to avoid duplicates
	for _, msg := range history {
		if msg.Role != types.RoleSystem {
			messages = append(messages, normalizeRoleForLLM(msg))
		}
	}

	if errorContext != "" {
		messages = append(messages, types.NewUserMessage(errorContext))
	}

	if userMessage != "" {
		messages = append(messages, types.NewUserMessage(userMessage))
	}

	return messages
}

// normalizeRoleForLLM returns tool results as user messages, since the XML
// calling convention has no tool role. The original message is not mutated.
func normalizeRoleForLLM(msg *types.Message) *types.Message {
	if msg.Role != types.RoleTool {
		return msg
	}
	return &types.Message{Role: types.RoleUser, Content: msg.Content}
}
