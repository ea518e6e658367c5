// Package config loads scout's YAML configuration, applies environment
// overrides and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	EnvAPIKey          = "OPENAI_API_KEY"
	EnvBaseURL         = "OPENAI_BASE_URL"
	EnvModel           = "SCOUT_MODEL"
	EnvBrowserEndpoint = "SCOUT_BROWSER_ENDPOINT"
)

// Config is the complete scout configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Report    ReportConfig    `yaml:"report" json:"report"`
	Agent     AgentConfig     `yaml:"agent" json:"agent"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// LLMConfig selects the OpenAI-compatible model used by research runs.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key" json:"-"`
	BaseURL     string  `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	Model       string  `yaml:"model" json:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens" validate:"gte=0"`
}

// BrowserConfig configures the shared browsing session.
type BrowserConfig struct {
	// Endpoint is a remote Chromium DevTools endpoint; empty launches a local browser
	Endpoint       string        `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	Headless       bool          `yaml:"headless" json:"headless"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width" validate:"gte=320,lte=7680"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height" validate:"gte=240,lte=4320"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" validate:"gte=0"`
	MaxPages       int           `yaml:"max_pages" json:"max_pages" validate:"gte=1,lte=64"`
}

// DiscoveryConfig tunes hidden-navigation discovery runs.
type DiscoveryConfig struct {
	MaxLinks            int           `yaml:"max_links" json:"max_links" validate:"gte=1,lte=5000"`
	Concurrency         int           `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=64"`
	WaitUntil           string        `yaml:"wait_until" json:"wait_until" validate:"oneof=load domcontentloaded networkidle commit"`
	NavigationTimeout   time.Duration `yaml:"navigation_timeout" json:"navigation_timeout" validate:"gte=0"`
	InteractionTimeout  time.Duration `yaml:"interaction_timeout" json:"interaction_timeout" validate:"gte=0"`
	VisibilityTimeout   time.Duration `yaml:"visibility_timeout" json:"visibility_timeout" validate:"gte=0"`
	LoadSettle          time.Duration `yaml:"load_settle" json:"load_settle" validate:"gte=0"`
	HoverSettle         time.Duration `yaml:"hover_settle" json:"hover_settle" validate:"gte=0"`
	MenuSettle          time.Duration `yaml:"menu_settle" json:"menu_settle" validate:"gte=0"`
	ScrollSettle        time.Duration `yaml:"scroll_settle" json:"scroll_settle" validate:"gte=0"`
	MaxHoverCandidates  int           `yaml:"max_hover_candidates" json:"max_hover_candidates" validate:"gte=1,lte=100"`
	MaxToggleCandidates int           `yaml:"max_toggle_candidates" json:"max_toggle_candidates" validate:"gte=1,lte=20"`
}

// ReportConfig configures where research reports are written.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required"`
}

// AgentConfig bounds research runs.
type AgentConfig struct {
	MaxIterations      int    `yaml:"max_iterations" json:"max_iterations" validate:"gte=1,lte=500"`
	MaxResultTokens    int    `yaml:"max_result_tokens" json:"max_result_tokens" validate:"gte=100"`
	FetchTokens        int    `yaml:"fetch_tokens" json:"fetch_tokens" validate:"gte=100,lte=16000"`
	CustomInstructions string `yaml:"custom_instructions" json:"custom_instructions"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity" validate:"oneof=quiet normal verbose debug"`
}

// DefaultConfig returns a configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       "gpt-4o",
			Temperature: 0.2,
		},
		Browser: BrowserConfig{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 720,
			Timeout:        30 * time.Second,
			ConnectTimeout: 30 * time.Second,
			MaxPages:       4,
		},
		Discovery: DiscoveryConfig{
			MaxLinks:            50,
			Concurrency:         4,
			WaitUntil:           "domcontentloaded",
			NavigationTimeout:   30 * time.Second,
			InteractionTimeout:  2 * time.Second,
			VisibilityTimeout:   500 * time.Millisecond,
			LoadSettle:          1500 * time.Millisecond,
			HoverSettle:         400 * time.Millisecond,
			MenuSettle:          600 * time.Millisecond,
			ScrollSettle:        800 * time.Millisecond,
			MaxHoverCandidates:  15,
			MaxToggleCandidates: 3,
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		Agent: AgentConfig{
			MaxIterations:   25,
			MaxResultTokens: 6000,
			FetchTokens:     4000,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load reads path on top of DefaultConfig, applies environment overrides and
// validates the result. An empty path loads the defaults. Keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. getenv is os.Getenv
// outside of tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.LLM.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.LLM.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvModel)); v != "" {
		c.LLM.Model = v
	}
	if v := strings.TrimSpace(getenv(EnvBrowserEndpoint)); v != "" {
		c.Browser.Endpoint = v
	}
}

// Marshal renders cfg as YAML. The API key is never written.
func (c *Config) Marshal() ([]byte, error) {
	clone := *c
	clone.LLM.APIKey = ""
	data, err := yaml.Marshal(&clone)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
