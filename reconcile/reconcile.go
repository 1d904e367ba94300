// Package reconcile diffs a freshly scraped record set against the store and
// applies the result: inserts for new models, updates for changed ones and a
// price history entry for every price change. Stored models missing from the
// batch are never touched.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gaurav-prasanna/motopipe/core"
)

var tracer = otel.Tracer("motopipe/reconcile")

// Failure is one record that could not be reconciled.
type Failure struct {
	Key core.IdentityKey
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

// Summary counts what a reconciliation did.
type Summary struct {
	Inserted  int
	Updated   int
	Unchanged int
	// Changes are the price history entries written, in batch order.
	Changes  []core.PriceHistoryEntry
	Failures []Failure
}

// PriceChanges is the number of detected price changes.
func (s *Summary) PriceChanges() int {
	return len(s.Changes)
}

func (s *Summary) count(op Op) {
	switch op.Action {
	case ActionInsert:
		s.Inserted++
	case ActionUpdate:
		s.Updated++
		if op.History != nil {
			s.Changes = append(s.Changes, *op.History)
		}
	case ActionNone:
		s.Unchanged++
	}
}

// Reconciler applies record batches to a store.
type Reconciler struct {
	store    core.Store
	minPrice float64
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithMinPrice sets the price below which incoming records are rejected.
func WithMinPrice(p float64) Option {
	return func(r *Reconciler) { r.minPrice = p }
}

// New creates a Reconciler over store. When store implements
// core.Transactor each record is reconciled in its own transaction.
func New(store core.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		minPrice: core.MinPlausiblePrice,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var errInvalidRecord = errors.New("invalid record")

// Reconcile applies records in order. A failing record is recorded in the
// summary and the rest of the batch still runs; the error return is
// reserved for a cancelled context.
func (r *Reconciler) Reconcile(ctx context.Context, records []core.Record) (*Summary, error) {
	sum := &Summary{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		op, err := r.reconcileOne(ctx, rec)
		if err != nil {
			r.logger.Error("reconciling record", "key", rec.Key().String(), "error", err)
			sum.Failures = append(sum.Failures, Failure{Key: rec.Key(), Err: err})
			continue
		}
		sum.count(op)
		switch {
		case op.Action == ActionInsert:
			r.logger.Debug("record inserted", "key", rec.Key().String(), "price", rec.Price)
		case op.History != nil:
			r.logger.Info("price changed", "key", rec.Key().String(), "old", op.History.OldPrice, "new", op.History.NewPrice, "pct", op.History.PercentageChange)
		}
	}
	return sum, nil
}

// DryRun plans records against the stored set without writing anything.
// Records Reconcile would reject show up as failures here too.
func (r *Reconciler) DryRun(ctx context.Context, lister core.Lister, records []core.Record) (*Summary, error) {
	stored, err := lister.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored records: %w", err)
	}
	var valid []core.Record
	var failures []Failure
	for _, rec := range records {
		if !rec.Valid(r.minPrice) {
			failures = append(failures, Failure{Key: rec.Key(), Err: errInvalidRecord})
			continue
		}
		valid = append(valid, rec)
	}
	sum := Summarize(Plan(stored, valid, r.now()))
	sum.Failures = failures
	return sum, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, rec core.Record) (op Op, err error) {
	ctx, span := tracer.Start(ctx, "reconcile.Record")
	span.SetAttributes(
		attribute.String("brand", rec.Brand),
		attribute.String("name", rec.Name),
	)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}
		span.SetAttributes(attribute.String("action", op.Action.String()))
		span.End()
	}()

	if !rec.Valid(r.minPrice) {
		return Op{}, errInvalidRecord
	}

	if tx, ok := r.store.(core.Transactor); ok {
		err = tx.WithinTx(ctx, func(s core.Store) error {
			op, err = apply(ctx, s, rec, r.now())
			return err
		})
		return op, err
	}
	return apply(ctx, r.store, rec, r.now())
}

// apply performs one record's read-then-write against s. A price history
// entry is written before the update that changes the price.
func apply(ctx context.Context, s core.Store, rec core.Record, now time.Time) (Op, error) {
	stored, err := s.FindByIdentity(ctx, rec.Brand, rec.Name)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Op{}, fmt.Errorf("finding %s: %w", rec.Key(), err)
	}

	op := Diff(stored, rec, now)
	switch op.Action {
	case ActionInsert:
		brandID, err := s.EnsureBrand(ctx, rec.Brand)
		if err != nil {
			return op, fmt.Errorf("ensuring brand %s: %w", rec.Brand, err)
		}
		id, err := s.Insert(ctx, brandID, rec)
		if err != nil {
			return op, fmt.Errorf("inserting %s: %w", rec.Key(), err)
		}
		op.ID = id
	case ActionUpdate:
		if op.History != nil {
			if err := s.InsertPriceHistory(ctx, *op.History); err != nil {
				return op, fmt.Errorf("recording price history of %s: %w", rec.Key(), err)
			}
		}
		if err := s.Update(ctx, op.ID, op.Update); err != nil {
			return op, fmt.Errorf("updating %s: %w", rec.Key(), err)
		}
	}
	return op, nil
}
