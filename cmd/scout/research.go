package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/scout/pkg/agent"
	"github.com/entrhq/scout/pkg/config"
	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/llm/openai"
	"github.com/entrhq/scout/pkg/llm/tokenizer"
	"github.com/entrhq/scout/pkg/report"
	"github.com/entrhq/scout/pkg/tools/browser"
	"github.com/entrhq/scout/pkg/tools/research"
	"github.com/entrhq/scout/pkg/types"
)

var researchOutputDir string

var researchCmd = &cobra.Command{
	Use:   "research <task>",
	Short: "Research a competitor question with an LLM and write a markdown report",
	Long: `Give the model a research task. It browses with fetch_page, search_links and
discover_navigation, then writes its findings with write_report. Every
navigation map it discovered is appended to the report.

Examples:
  scout research "Compare the pricing pages of acme.com and globex.com"
  scout research --output-dir ./out "What products does acme.com hide in its mega menu?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.Report.OutputDir = researchOutputDir
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("API key is required (set %s or llm.api_key)", config.EnvAPIKey)
		}

		provider, err := openai.NewProvider(cfg.LLM.APIKey, providerOptions(cfg.LLM)...)
		if err != nil {
			return fmt.Errorf("failed to create LLM provider: %w", err)
		}

		tok, err := tokenizer.ForModel(cfg.LLM.Model)
		if err != nil {
			cliLog.Warnf("Tokenizer unavailable, estimating token counts: %v", err)
			tok = nil
		}

		manager := browser.NewSessionManager(cfg.Browser.SessionOptions())
		defer func() {
			if shutdownErr := manager.Shutdown(); shutdownErr != nil {
				cliLog.Warnf("Browser shutdown failed: %v", shutdownErr)
			}
		}()

		notebook := research.NewNotebook()
		toolset := research.NewTools(research.Config{
			Pages:             manager,
			Explorer:          discovery.NewExplorer(manager, cfg.Discovery.ExplorerOptions()),
			Writer:            report.NewWriter(cfg.Report.OutputDir),
			Notebook:          notebook,
			Tokenizer:         tok,
			Navigate:          cfg.Discovery.NavigateOptions(),
			FetchTokens:       cfg.Agent.FetchTokens,
			DiscoveryMaxLinks: cfg.Discovery.MaxLinks,
		})

		printer := &eventPrinter{
			w:     cmd.ErrOrStderr(),
			quiet: strings.EqualFold(cfg.Logging.Verbosity, "quiet"),
		}

		ag := agent.New(provider,
			agent.WithCustomInstructions(cfg.Agent.CustomInstructions),
			agent.WithMaxIterations(cfg.Agent.MaxIterations),
			agent.WithMaxResultTokens(cfg.Agent.MaxResultTokens),
			agent.WithTokenizer(tok),
			agent.WithEventHandler(printer.handle),
		)
		for _, tool := range toolset {
			if err := ag.RegisterTool(tool); err != nil {
				return fmt.Errorf("failed to register tool %s: %w", tool.Name(), err)
			}
		}

		result, err := ag.Run(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderResult(result, len(notebook.Visits()), len(notebook.Discoveries())))
		return resultError(result)
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchOutputDir, "output-dir", report.DefaultOutputDir, "Directory for written reports (overrides config)")
	rootCmd.AddCommand(researchCmd)
}

// providerOptions converts the llm section into provider options.
func providerOptions(c config.LLMConfig) []openai.ProviderOption {
	opts := []openai.ProviderOption{
		openai.WithModel(c.Model),
		openai.WithTemperature(c.Temperature),
	}
	if c.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.BaseURL))
	}
	if c.MaxTokens > 0 {
		opts = append(opts, openai.WithMaxTokens(c.MaxTokens))
	}
	return opts
}

// resultError maps runs that gave up into a non-zero exit.
func resultError(result *agent.Result) error {
	switch result.StopReason {
	case agent.StopCircuitBreaker:
		return fmt.Errorf("research stopped after repeated errors")
	case agent.StopMaxIterations:
		return fmt.Errorf("research did not finish within %d iterations", result.Iterations)
	case agent.StopCanceled:
		return fmt.Errorf("research canceled")
	}
	return nil
}

// renderResult formats the end-of-run summary box.
func renderResult(result *agent.Result, sources, discoveries int) string {
	var b strings.Builder

	if result.Completed() {
		b.WriteString(headerStyle.Render("Research complete"))
	} else {
		b.WriteString(headerStyle.Render("Research stopped: " + string(result.StopReason)))
	}
	b.WriteString("\n")

	if result.Output != "" {
		b.WriteString(labelStyle.Render(result.Output))
		b.WriteString("\n")
	}
	if path, ok := result.Metadata["path"].(string); ok {
		fmt.Fprintf(&b, "%s %s\n", tipsStyle.Render("report:"), urlStyle.Render(path))
	}
	fmt.Fprintf(&b, "%s %d iterations, %d sources, %d navigation maps, %d/%d tokens",
		tipsStyle.Render("stats:"), result.Iterations, sources, discoveries,
		result.PromptTokens, result.CompletionTokens)

	return summaryStyle.Render(b.String())
}

// eventPrinter streams agent progress to the terminal.
type eventPrinter struct {
	w     io.Writer
	quiet bool
}

func (p *eventPrinter) handle(e *types.AgentEvent) {
	if p.quiet {
		return
	}
	if line := formatEvent(e); line != "" {
		fmt.Fprintln(p.w, line)
	}
}

// formatEvent renders one agent event, or "" for events not shown.
func formatEvent(e *types.AgentEvent) string {
	switch e.Type {
	case types.EventTypeMessage:
		return labelStyle.Render(e.Content)
	case types.EventTypeToolCall:
		return toolStyle.Render("→ "+e.ToolName) + " " + urlStyle.Render(formatArgs(e.ToolInput))
	case types.EventTypeToolResult:
		if n, ok := e.Metadata["total_links"].(int); ok {
			return tipsStyle.Render(fmt.Sprintf("  %s found %d links", e.ToolName, n))
		}
		if n, ok := e.Metadata["matches"].(int); ok {
			return tipsStyle.Render(fmt.Sprintf("  %s matched %d links", e.ToolName, n))
		}
		return tipsStyle.Render("  " + e.ToolName + " done")
	case types.EventTypeToolResultError:
		return errorStyle.Render(fmt.Sprintf("  %s failed: %v", e.ToolName, e.Error))
	case types.EventTypeError:
		return errorStyle.Render(fmt.Sprintf("! %v", e.Error))
	}
	return ""
}

// formatArgs renders tool arguments as sorted key=value pairs.
func formatArgs(args map[string]interface{}) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(args[k])
		if len(v) > 60 {
			v = v[:57] + "..."
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
