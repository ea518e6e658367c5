// Package main provides the scout command: competitor page research backed by
// a real browser, with discovery of navigation that only appears on hover,
// behind a hamburger menu or in the footer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/scout/pkg/config"
	"github.com/entrhq/scout/pkg/logging"
)

const version = "0.1.0" // Version of the scout CLI

var (
	configPath string
	verbosity  string
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Research competitor web pages and map their hidden navigation",
	Long: `scout drives a real Chromium browser, locally or over a remote DevTools
endpoint, to research competitor websites.

  scout discover <url>...   map every navigation link of one or more pages
  scout research <task>     let an LLM research a question and write a report

Environment Variables:
  OPENAI_API_KEY          OpenAI API key
  OPENAI_BASE_URL         OpenAI API base URL (for compatible APIs)
  SCOUT_MODEL             Model override
  SCOUT_BROWSER_ENDPOINT  Remote Chromium endpoint, e.g. ws://browser:9222`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug (overrides config)")
}

// loadConfig reads the configuration and applies the logging level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbosity != "" {
		cfg.Logging.Verbosity = verbosity
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logging.SetLevel(logging.ParseVerbosity(cfg.Logging.Verbosity))
	return cfg, nil
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
