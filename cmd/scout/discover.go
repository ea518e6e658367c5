package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/scout/pkg/discovery"
	"github.com/entrhq/scout/pkg/logging"
	"github.com/entrhq/scout/pkg/tools/browser"
)

var (
	discoverMaxLinks    int
	discoverConcurrency int
	discoverJSON        bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <url>...",
	Short: "Map the navigation of one or more pages, including hover and hamburger menus",
	Long: `Open each page in its own isolated browser tab and collect its navigation:
the primary nav, submenus revealed on hover, the mobile/hamburger menu and the
footer. Cookie banners are dismissed first. Pages are explored concurrently.

Examples:
  scout discover https://acme.com
  scout discover acme.com globex.com --max-links 100
  scout discover https://acme.com --json > acme.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		maxLinks := cfg.Discovery.MaxLinks
		if cmd.Flags().Changed("max-links") {
			maxLinks = discoverMaxLinks
		}
		concurrency := cfg.Discovery.Concurrency
		if cmd.Flags().Changed("concurrency") {
			concurrency = discoverConcurrency
		}

		manager := browser.NewSessionManager(cfg.Browser.SessionOptions())
		defer func() {
			if shutdownErr := manager.Shutdown(); shutdownErr != nil {
				cliLog.Warnf("Browser shutdown failed: %v", shutdownErr)
			}
		}()

		explorer := discovery.NewExplorer(manager, cfg.Discovery.ExplorerOptions())
		reports := discoverAll(cmd.Context(), explorer, normalizeTargets(args), maxLinks, concurrency)

		if discoverJSON {
			if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
		} else {
			printReports(cmd.OutOrStdout(), reports)
		}

		if failed := countFailed(reports); failed > 0 {
			return fmt.Errorf("discovery failed for %d of %d pages", failed, len(reports))
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().IntVar(&discoverMaxLinks, "max-links", discovery.DefaultMaxLinks, "Maximum links to collect per page")
	discoverCmd.Flags().IntVar(&discoverConcurrency, "concurrency", 4, "Pages explored at the same time")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print reports as JSON")
	rootCmd.AddCommand(discoverCmd)
}

var cliLog *logging.Logger

func init() {
	var err error
	cliLog, err = logging.NewLogger("cli")
	if err != nil {
		cliLog.Warnf("Failed to initialize cli logger, using stderr fallback: %v", err)
	}
}

// discoverer is satisfied by *discovery.Explorer.
type discoverer interface {
	Discover(ctx context.Context, target string, maxLinks int) *discovery.Report
}

// discoverAll runs one discovery per target with at most concurrency runs in
// flight. Reports are returned in target order.
func discoverAll(ctx context.Context, d discoverer, targets []string, maxLinks, concurrency int) []*discovery.Report {
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*discovery.Report, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, target := range targets {
		g.Go(func() error {
			reports[i] = d.Discover(gctx, target, maxLinks)
			return nil
		})
	}
	// Discover never fails; problems are recorded in each report.
	_ = g.Wait()

	return reports
}

// normalizeTargets adds https:// to bare host names.
func normalizeTargets(args []string) []string {
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if !strings.Contains(arg, "://") {
			arg = "https://" + arg
		}
		targets = append(targets, arg)
	}
	return targets
}

// countFailed counts reports that found nothing because of an error.
func countFailed(reports []*discovery.Report) int {
	failed := 0
	for _, r := range reports {
		if r.TotalLinksFound == 0 && len(r.Errors) > 0 {
			failed++
		}
	}
	return failed
}

func writeJSON(w io.Writer, reports []*discovery.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var v interface{} = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	return nil
}

func printReports(w io.Writer, reports []*discovery.Report) {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, renderReport(r))
	}
}

// renderReport formats a report for the terminal.
func renderReport(r *discovery.Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(r.TargetURL))
	b.WriteString("\n")
	b.WriteString(tipsStyle.Render(fmt.Sprintf("%d links in %d sections", r.TotalLinksFound, len(r.Sections))))
	b.WriteString("\n")

	for _, section := range r.Sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", section.Label, len(section.Links))))
		b.WriteString("\n")
		for _, link := range section.Links {
			if link.Label == "" {
				fmt.Fprintf(&b, "  %s\n", urlStyle.Render(link.URL))
				continue
			}
			fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(link.Label), urlStyle.Render(link.URL))
		}
	}

	for _, msg := range r.Errors {
		b.WriteString(errorStyle.Render("! " + msg))
		b.WriteString("\n")
	}
	return b.String()
}
