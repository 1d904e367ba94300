package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gaurav-prasanna/motopipe/core"
)

// DefaultTimeout bounds one extraction attempt.
const DefaultTimeout = 30 * time.Second

var tracer = otel.Tracer("motopipe/extract")

// Config is the static, per-source configuration. It is copied into the
// Source at construction and never changes afterwards.
type Config struct {
	Name  string
	Brand string
	URL   string
	// Alternates are tried in order when URL yields no records.
	Alternates []string
	Headers    map[string]string
	Timeout    time.Duration
	MinPrice   float64
	// Year is the model year of items that carry none. Zero means the
	// current year at extraction time.
	Year int
}

// Source is the single concrete Extractor: an acquirer, a strategy and a
// brand profile bound to one immutable Config.
type Source struct {
	cfg      Config
	acquirer Acquirer
	strategy Strategy
	profile  Profile
	logger   *slog.Logger
	now      func() time.Time
}

// SourceOption customizes a Source.
type SourceOption func(*Source)

// WithLogger sets the logger for per-source diagnostics.
func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) { s.now = now }
}

// NewSource validates cfg and binds it to its collaborators.
func NewSource(cfg Config, acquirer Acquirer, strategy Strategy, profile Profile, opts ...SourceOption) (*Source, error) {
	if cfg.Name == "" {
		return nil, errors.New("source name is required")
	}
	if cfg.Brand == "" {
		return nil, fmt.Errorf("source %s: brand is required", cfg.Name)
	}
	if acquirer == nil || strategy == nil {
		return nil, fmt.Errorf("source %s: acquirer and strategy are required", cfg.Name)
	}
	if _, ok := acquirer.(Buffer); !ok && cfg.URL == "" {
		return nil, fmt.Errorf("source %s: url is required", cfg.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinPrice <= 0 {
		cfg.MinPrice = core.MinPlausiblePrice
	}
	cfg.Headers = cloneHeaders(cfg.Headers)
	cfg.Alternates = append([]string(nil), cfg.Alternates...)
	if profile.Brand == "" {
		profile.Brand = cfg.Brand
	}

	s := &Source{
		cfg:      cfg,
		acquirer: acquirer,
		strategy: strategy,
		profile:  profile,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Brand() string { return s.cfg.Brand }

// Config returns a copy of the source configuration.
func (s *Source) Config() Config {
	c := s.cfg
	c.Headers = cloneHeaders(c.Headers)
	c.Alternates = append([]string(nil), c.Alternates...)
	return c
}

// Kind reports the strategy variant of the source.
func (s *Source) Kind() Kind { return s.strategy.Kind() }

// Extract runs one attempt against the live source. It never returns an
// error for fetch or parse failures; those end in StateFallback.
func (s *Source) Extract(ctx context.Context) (*Outcome, error) {
	start := s.now()
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", s.cfg.Name),
		attribute.String("brand", s.cfg.Brand),
		attribute.String("kind", string(s.strategy.Kind())),
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out := &Outcome{Source: s.cfg.Name, Brand: s.cfg.Brand, State: StateFetching}

	var err error
	for _, u := range s.urls() {
		var res *liveResult
		res, err = s.live(ctx, u)
		if err != nil {
			s.logger.Debug("source attempt failed", "source", s.cfg.Name, "url", u, "err", err)
			continue
		}
		out.Records = res.records
		out.Dropped = res.dropped
		out.Duplicates = res.duplicates
		out.State = StateValidated
		break
	}

	if out.State != StateValidated {
		out.State = StateFallback
		out.Cause = err
		out.Records = s.profile.FallbackRecords()
		span.SetStatus(codes.Error, "fallback")
		span.RecordError(err)
		s.logger.Warn("source fell back to sample data", "source", s.cfg.Name, "err", err)
	}

	out.Duration = s.now().Sub(start)
	span.SetAttributes(
		attribute.Int("records", len(out.Records)),
		attribute.Bool("live", out.Live()),
	)
	return out, nil
}

func (s *Source) urls() []string {
	if s.cfg.URL == "" {
		return []string{""}
	}
	return append([]string{s.cfg.URL}, s.cfg.Alternates...)
}

type liveResult struct {
	records    []core.Record
	dropped    int
	duplicates int
}

func (s *Source) live(ctx context.Context, rawURL string) (*liveResult, error) {
	payload, err := s.acquirer.Acquire(ctx, rawURL, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	items, err := s.strategy.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var base *url.URL
	if rawURL != "" {
		base, _ = url.Parse(rawURL)
	}
	year := s.cfg.Year
	if year == 0 {
		year = s.now().Year()
	}

	res := &liveResult{}
	seen := newDedupe()
	for _, it := range items {
		rec := s.profile.Normalize(it, base, year)
		if !rec.Valid(s.cfg.MinPrice) {
			res.dropped++
			continue
		}
		if !seen.Add(rec) {
			res.duplicates++
		}
	}
	res.records = seen.All()
	if len(res.records) == 0 {
		return nil, ErrNoValidRecords
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
