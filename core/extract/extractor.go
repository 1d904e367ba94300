// Package extract implements the source extractor contract.
// A Source acquires a raw payload, locates repeating items with one of a
// closed set of strategies, normalizes each item through its brand Profile,
// then validates and deduplicates the result. When any of that fails the
// Source answers with the profile's fallback catalog instead of an error.
package extract

import (
	"context"
	"errors"
	"time"

	"github.com/gaurav-prasanna/motopipe/core"
)

// Extractor turns one source into canonical records.
//
// The error return is reserved for configuration faults; fetch and parse
// failures are reported through Outcome.State and Outcome.Cause.
type Extractor interface {
	Name() string
	Brand() string
	Extract(ctx context.Context) (*Outcome, error)
}

// State is a step of one extraction attempt.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateValidated
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateValidated:
		return "validated"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one extraction attempt.
type Outcome struct {
	Source  string
	Brand   string
	Records []core.Record
	State   State

	// Cause is why the attempt fell back; nil when State is StateValidated.
	Cause error

	Dropped    int
	Duplicates int
	Duration   time.Duration
}

// Live reports whether the records came from the live source.
func (o *Outcome) Live() bool {
	return o.State == StateValidated
}

var (
	// ErrNoItems means the strategy found no repeating units in the payload.
	ErrNoItems = errors.New("no items found")
	// ErrNoValidRecords means every item was dropped by validation.
	ErrNoValidRecords = errors.New("no valid records")
	// ErrNoRenderer means a rendered source has no page renderer configured.
	ErrNoRenderer = errors.New("no page renderer configured")
)
