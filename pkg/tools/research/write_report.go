package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/scout/pkg/agent/tools"
	"github.com/entrhq/scout/pkg/report"
)

// WriteReportTool saves the final research report and ends the run.
type WriteReportTool struct {
	cfg Config
}

// NewWriteReportTool creates a new WriteReportTool.
func NewWriteReportTool(cfg Config) *WriteReportTool {
	return &WriteReportTool{cfg: cfg.withDefaults()}
}

func (t *WriteReportTool) Name() string {
	return "write_report"
}

func (t *WriteReportTool) Description() string {
	return "Save the final research report as markdown and finish. The navigation found by every " +
		"discover_navigation call and the list of pages you read are appended automatically."
}

func (t *WriteReportTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Report title, e.g. Acme vs Globex pricing.",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Markdown body of the report. Escape & as &amp; and < as &lt;.",
			},
		},
		[]string{"title", "content"},
	)
}

func (t *WriteReportTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Title   string   `xml:"title"`
		Content string   `xml:"content"`
	}

	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if strings.TrimSpace(input.Title) == "" {
		return "", nil, fmt.Errorf("missing required parameter: title")
	}
	if strings.TrimSpace(input.Content) == "" {
		return "", nil, fmt.Errorf("missing required parameter: content")
	}

	body := t.composeBody(input.Content)
	path, err := t.cfg.Writer.Write(input.Title, body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to write report: %w", err)
	}

	researchLog.Infof("Report written to %s", path)
	return fmt.Sprintf("Report written to %s", path), map[string]interface{}{
		"path":        path,
		"title":       strings.TrimSpace(input.Title),
		"discoveries": len(t.cfg.Notebook.Discoveries()),
		"sources":     len(t.cfg.Notebook.Visits()),
	}, nil
}

// composeBody appends the navigation appendix and the source list to content.
func (t *WriteReportTool) composeBody(content string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(content))
	b.WriteString("\n")

	if appendix := report.Appendix(t.cfg.Notebook.Discoveries()); appendix != "" {
		b.WriteString("\n")
		b.WriteString(appendix)
	}

	if visits := t.cfg.Notebook.Visits(); len(visits) > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, v := range visits {
			if v.Title == "" {
				fmt.Fprintf(&b, "- <%s>\n", v.URL)
				continue
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", v.Title, v.URL)
		}
	}
	return b.String()
}

func (t *WriteReportTool) IsLoopBreaking() bool {
	return true
}
