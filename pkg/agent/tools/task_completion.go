package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// TaskCompletionToolName is the name the agent uses to finish without a report file.
const TaskCompletionToolName = "task_completion"

// TaskCompletionTool ends a research run with an inline answer. Use it when
// the task asks a question that does not warrant a written report.
type TaskCompletionTool struct{}

// NewTaskCompletionTool creates a new task completion tool
func NewTaskCompletionTool() *TaskCompletionTool {
	return &TaskCompletionTool{}
}

func (t *TaskCompletionTool) Name() string {
	return TaskCompletionToolName
}

func (t *TaskCompletionTool) Description() string {
	return "Finish the research and return the answer directly, without writing a report file. " +
		"Only use this once every claim in the answer is backed by a page you fetched or a discovery run."
}

func (t *TaskCompletionTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"result": map[string]interface{}{
				"type":        "string",
				"description": "The final answer, citing the URLs it is based on.",
			},
		},
		[]string{"result"},
	)
}

func (t *TaskCompletionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var args struct {
		XMLName xml.Name `xml:"arguments"`
		Result  string   `xml:"result"`
	}

	if err := UnmarshalXMLWithFallback(argsXML, &args); err != nil {
		return "", nil, fmt.Errorf("invalid arguments for %s: %w", TaskCompletionToolName, err)
	}

	result := strings.TrimSpace(args.Result)
	if result == "" {
		return "", nil, fmt.Errorf("result cannot be empty")
	}
	return result, nil, nil
}

// IsLoopBreaking returns true because this tool terminates the agent loop
func (t *TaskCompletionTool) IsLoopBreaking() bool {
	return true
}
