// Package sources holds the built-in manufacturer price-list sources and the
// brand knowledge (category rules, engine corrections, fallback catalogs)
// each of them owns.
package sources

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gaurav-prasanna/motopipe/config"
	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
)

// Deps are the shared collaborators every source is built with.
type Deps struct {
	Fetcher   core.Fetcher
	Renderer  core.PageRenderer
	UserAgent string
	Timeout   time.Duration
	MinPrice  float64
	Logger    *slog.Logger
}

// Definition describes one built-in source.
type Definition struct {
	Name        string
	Brand       string
	Kind        extract.Kind
	URL         string
	Description string
	// Default sources run when no source is named explicitly.
	Default bool

	build func(d Deps, cfg extract.Config) (*extract.Source, error)
}

// Builtins returns the built-in sources in run order.
func Builtins() []Definition {
	return []Definition{
		bmwDefinition(),
		yamahaDefinition(),
		hondaDefinition(),
		kawasakiDefinition(),
		bmwAPIDefinition(),
	}
}

// Lookup returns the built-in definition with the given name.
func Lookup(name string) (Definition, bool) {
	for _, d := range Builtins() {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Build constructs the extractors to run. Built-in sources are filtered and
// adjusted by overrides; custom sources follow them in declaration order.
func Build(d Deps, overrides map[string]config.SourceOverride, custom []config.CustomSource) ([]extract.Extractor, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	for name := range overrides {
		if _, ok := Lookup(name); !ok {
			return nil, fmt.Errorf("override for unknown source %q", name)
		}
	}

	var out []extract.Extractor
	for _, def := range Builtins() {
		ov := overrides[def.Name]
		if ov.Disabled || (!def.Default && !ov.Enabled) {
			continue
		}
		src, err := def.Build(d, ov.URL)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	for _, c := range custom {
		src, err := BuildCustom(d, c)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// Build constructs the source, optionally pointing it at another URL.
func (def Definition) Build(d Deps, url string) (*extract.Source, error) {
	cfg := extract.Config{
		Name:     def.Name,
		Brand:    def.Brand,
		URL:      def.URL,
		Timeout:  d.Timeout,
		MinPrice: d.MinPrice,
	}
	if url != "" {
		cfg.URL = url
	}
	src, err := def.build(d, cfg)
	if err != nil {
		return nil, fmt.Errorf("building source %s: %w", def.Name, err)
	}
	return src, nil
}

// Names returns the built-in source names sorted alphabetically.
func Names() []string {
	var names []string
	for _, d := range Builtins() {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

func sourceOptions(d Deps) []extract.SourceOption {
	if d.Logger == nil {
		return nil
	}
	return []extract.SourceOption{extract.WithLogger(d.Logger)}
}
