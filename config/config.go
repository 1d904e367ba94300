// Package config loads motopipe's configuration.
//
// Settings are read from a json5 file, overridden by a sibling
// "<name>.local.<ext>" file when present, then by MOTOPIPE_* environment
// variables. A missing file is not an error: defaults apply.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "motopipe.json5"

// Config is the full configuration tree.
type Config struct {
	Scrape    Scrape                    `json:"scrape"`
	Sources   map[string]SourceOverride `json:"sources"`
	Custom    []CustomSource            `json:"customSources"`
	Output    Output                    `json:"output"`
	Store     Store                     `json:"store"`
	Renderer  Renderer                  `json:"renderer"`
	Telemetry Telemetry                 `json:"telemetry"`
}

// Scrape configures the orchestrator and the HTTP fetcher.
type Scrape struct {
	// Mode is "sequential" or "concurrent".
	Mode string `json:"mode"`
	// Delay between sources in sequential mode, e.g. "2s".
	Delay string `json:"delay"`
	// Timeout of one source attempt, e.g. "30s".
	Timeout          string  `json:"timeout"`
	Concurrency      int     `json:"concurrency"`
	UserAgent        string  `json:"userAgent"`
	CloudflareBypass bool    `json:"cloudflareBypass"`
	MinPrice         float64 `json:"minPrice"`
}

// SourceOverride adjusts a built-in source.
type SourceOverride struct {
	Disabled bool   `json:"disabled"`
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
}

// CustomSource declares a source that is not built in. Kind selects the
// strategy: "json", "cards", "table" or "text".
type CustomSource struct {
	Name     string            `json:"name"`
	Brand    string            `json:"brand"`
	Kind     string            `json:"kind"`
	URL      string            `json:"url"`
	File     string            `json:"file"`
	Rendered bool              `json:"rendered"`
	Headers  map[string]string `json:"headers"`

	// Items are gjson paths to the item array (json kind).
	Items []string `json:"items"`
	// Container or row selector (cards and table kinds).
	Selector string `json:"selector"`
	// Fields maps a field name to a selector (cards), a column index as a
	// string (table) or a comma separated alias list (json).
	Fields map[string]string `json:"fields"`
	// Patterns overrides the text kind's line patterns by field name.
	Patterns map[string]string `json:"patterns"`
}

// Output configures exported files.
type Output struct {
	Dir      string `json:"dir"`
	Markdown bool   `json:"markdown"`
	PDF      bool   `json:"pdf"`
}

// Store selects the persistence backend: "memory", "sqlite" or "postgres".
type Store struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Renderer points at the external headless-browser service.
type Renderer struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Telemetry configures logging and tracing.
type Telemetry struct {
	LogLevel     string            `json:"logLevel"`
	LogFormat    string            `json:"logFormat"`
	OtlpEndpoint string            `json:"otlpEndpoint"`
	OtlpHeaders  map[string]string `json:"otlpHeaders"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Scrape: Scrape{
			Mode:        "sequential",
			Delay:       "2s",
			Timeout:     "30s",
			Concurrency: 4,
			MinPrice:    10000,
		},
		Output: Output{Dir: "."},
		Store:  Store{Driver: "sqlite", DSN: "motopipe.db"},
		Telemetry: Telemetry{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// Load reads the configuration at path (DefaultPath when empty), merging
// in the local override file and the environment.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	out := Default()

	base, err := readFile(path)
	if err != nil {
		return out, err
	}
	if base != nil {
		if err := mergo.Merge(&out, *base, mergo.WithOverride); err != nil {
			return out, fmt.Errorf("merging %s: %w", path, err)
		}
	}

	prefix, ext := splitExt(path)
	localPath := fmt.Sprintf("%s.local.%s", prefix, ext)
	local, err := readFile(localPath)
	if err != nil {
		return out, err
	}
	if local != nil {
		if err := mergo.Merge(&out, *local, mergo.WithOverride); err != nil {
			return out, fmt.Errorf("merging %s: %w", localPath, err)
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	applyEnv(&out)
	return out, out.Validate()
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var c Config
	if err := json5.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("MOTOPIPE_DB_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("MOTOPIPE_DB_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("MOTOPIPE_RENDERER_URL"); v != "" {
		c.Renderer.URL = v
	}
	if v := os.Getenv("MOTOPIPE_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OtlpEndpoint = v
	}
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch c.Scrape.Mode {
	case "", "sequential", "concurrent":
	default:
		return fmt.Errorf("scrape.mode must be sequential or concurrent, got %q", c.Scrape.Mode)
	}
	for _, d := range []string{c.Scrape.Delay, c.Scrape.Timeout} {
		if _, err := parseDuration(d); err != nil {
			return err
		}
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be memory, sqlite or postgres, got %q", c.Store.Driver)
	}
	seen := make(map[string]bool)
	for _, s := range c.Custom {
		if s.Name == "" || s.Brand == "" {
			return errors.New("custom sources need a name and a brand")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate custom source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", s, err)
	}
	return d, nil
}

// DelayDuration returns the sequential inter-source delay.
func (s Scrape) DelayDuration() time.Duration {
	d, _ := parseDuration(s.Delay)
	return d
}

// TimeoutDuration returns the per-source attempt timeout.
func (s Scrape) TimeoutDuration() time.Duration {
	d, _ := parseDuration(s.Timeout)
	return d
}
