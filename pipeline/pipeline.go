// Package pipeline runs a set of extractors and merges their records.
// Each extractor is isolated: its errors and panics are captured into its
// own outcome and never stop the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
)

// DefaultDelay is the politeness pause between sources in sequential mode.
const DefaultDelay = 2 * time.Second

var (
	// ErrNoRecords means no source produced a single record.
	ErrNoRecords = errors.New("no records scraped from any source")
	// ErrUnknownSource means RunOne was asked for a source that is not configured.
	ErrUnknownSource = errors.New("unknown source")
)

// Mode selects how extractors are scheduled.
type Mode int

const (
	Sequential Mode = iota
	Concurrent
)

// ParseMode maps "sequential" or "concurrent" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "sequential":
		return Sequential, nil
	case "concurrent":
		return Concurrent, nil
	}
	return Sequential, fmt.Errorf("unknown mode %q", s)
}

// Result is the merged output of a run.
type Result struct {
	Records []core.Record
	Stats   *core.Stats
}

// Pipeline schedules extractors and aggregates their outcomes.
type Pipeline struct {
	extractors  []extract.Extractor
	mode        Mode
	delay       time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
	wait        func(ctx context.Context, d time.Duration) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithDelay sets the pause between sources in sequential mode. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

// WithConcurrency bounds the number of extractors running at once in
// concurrent mode. Zero or less means no bound.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline over extractors, which run in the given order.
func New(extractors []extract.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractors: extractors,
		mode:       Sequential,
		delay:      DefaultDelay,
		logger:     slog.Default(),
		now:        time.Now,
		wait:       sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sources returns the names of the configured extractors in run order.
func (p *Pipeline) Sources() []string {
	names := make([]string, 0, len(p.extractors))
	for _, e := range p.extractors {
		names = append(names, e.Name())
	}
	return names
}

// RunAll runs every extractor. The result is always returned; err is
// ErrNoRecords when the merged record set is empty.
func (p *Pipeline) RunAll(ctx context.Context) (*Result, error) {
	return p.run(ctx, p.extractors)
}

// RunOne runs the extractor with the given name.
func (p *Pipeline) RunOne(ctx context.Context, name string) (*Result, error) {
	for _, e := range p.extractors {
		if e.Name() == name {
			return p.run(ctx, []extract.Extractor{e})
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

// slot is the outcome of one extractor; each goroutine writes only its own.
type slot struct {
	outcome *extract.Outcome
	err     error
	elapsed time.Duration
}

func (p *Pipeline) run(ctx context.Context, extractors []extract.Extractor) (*Result, error) {
	start := p.now()
	slots := make([]slot, len(extractors))

	switch p.mode {
	case Concurrent:
		g := new(errgroup.Group)
		if p.concurrency > 0 {
			g.SetLimit(p.concurrency)
		}
		for i, e := range extractors {
			g.Go(func() error {
				slots[i] = p.extractOne(ctx, e)
				return nil
			})
		}
		_ = g.Wait()
	default:
		for i, e := range extractors {
			if i > 0 && p.delay > 0 {
				if err := p.wait(ctx, p.delay); err != nil {
					for j := i; j < len(extractors); j++ {
						slots[j] = slot{err: fmt.Errorf("not started: %w", err)}
					}
					break
				}
			}
			slots[i] = p.extractOne(ctx, e)
		}
	}

	res := p.merge(extractors, slots)
	res.Stats.StartedAt = start
	res.Stats.Duration = p.now().Sub(start)
	if len(res.Records) == 0 {
		return res, ErrNoRecords
	}
	return res, nil
}

func (p *Pipeline) extractOne(ctx context.Context, e extract.Extractor) (s slot) {
	logger := p.logger.With("source", e.Name())
	start := p.now()
	defer func() {
		s.elapsed = p.now().Sub(start)
		if r := recover(); r != nil {
			logger.Error("extractor panicked", "panic", r, "stack", string(debug.Stack()))
			s = slot{err: fmt.Errorf("panic: %v", r), elapsed: s.elapsed}
		}
	}()

	logger.Info("scraping source", "brand", e.Brand())
	out, err := e.Extract(ctx)
	if err != nil {
		logger.Error("extractor failed", "error", err)
		return slot{err: err}
	}
	if out == nil {
		return slot{err: errors.New("extractor returned no outcome")}
	}
	if out.Live() {
		logger.Info("source scraped", "records", len(out.Records), "dropped", out.Dropped, "duplicates", out.Duplicates)
	} else {
		logger.Warn("source fell back to sample catalog", "records", len(out.Records), "cause", out.Cause)
	}
	return slot{outcome: out}
}

func (p *Pipeline) merge(extractors []extract.Extractor, slots []slot) *Result {
	stats := &core.Stats{
		RunID:  uuid.NewString(),
		Errors: []string{},
	}
	var records []core.Record

	for i, e := range extractors {
		s := slots[i]
		stat := core.SourceStat{
			Name:     e.Name(),
			Brand:    e.Brand(),
			Duration: s.elapsed,
		}
		switch {
		case s.err != nil:
			stat.Error = s.err.Error()
		case s.outcome != nil:
			out := s.outcome
			stat.Count = len(out.Records)
			stat.Live = out.Live()
			stat.Dropped = out.Dropped
			stat.Duplicates = out.Duplicates
			if out.Duration > 0 {
				stat.Duration = out.Duration
			}
			if out.Cause != nil {
				stat.Error = out.Cause.Error()
			}
			records = append(records, out.Records...)
		}
		if stat.Error != "" {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %s", stat.Name, stat.Error))
		}
		stats.Sources = append(stats.Sources, stat)
	}

	stats.Total = len(records)
	stats.ByBrand = core.BrandSummary(records)
	return &Result{Records: records, Stats: stats}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
