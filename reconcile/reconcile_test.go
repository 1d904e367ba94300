package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/store/memory"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store, records ...core.Record) {
	t.Helper()
	ctx := context.Background()
	for _, r := range records {
		brandID, err := s.EnsureBrand(ctx, r.Brand)
		require.NoError(t, err)
		_, err = s.Insert(ctx, brandID, r)
		require.NoError(t, err)
	}
}

func find(t *testing.T, s core.Store, brand, name string) core.Record {
	t.Helper()
	got, err := s.FindByIdentity(context.Background(), brand, name)
	require.NoError(t, err)
	return got.Record
}

func newReconciler(s core.Store) *Reconciler {
	return New(s, WithClock(func() time.Time { return fixedNow }))
}

func TestPriceChangeWritesHistory(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "Yamaha", Name: "MT-07", Category: core.CategoryNaked, Year: 2024, Price: 275000})

	sum, err := newReconciler(s).Reconcile(context.Background(), []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Category: core.CategoryNaked, Year: 2024, Price: 289000},
	})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Updated)
	require.Equal(t, 1, sum.PriceChanges())
	require.Empty(t, sum.Failures)

	history := s.History()
	require.Len(t, history, 1)
	require.Equal(t, 14000.0, history[0].PriceChange)
	require.Equal(t, 5.09, history[0].PercentageChange)
	require.Equal(t, 275000.0, history[0].OldPrice)
	require.Equal(t, 289000.0, history[0].NewPrice)
	require.Equal(t, fixedNow, history[0].ChangedAt)
	require.Equal(t, "Yamaha-MT-07: 275.000 ₺ → 289.000 ₺ (+5.09%)", history[0].String())

	got := find(t, s, "Yamaha", "MT-07")
	require.Equal(t, 289000.0, got.Price)
	require.Equal(t, core.Ptr(275000.0), got.PreviousPrice)
}

func TestPriceDropIsNegative(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "BMW", Name: "S 1000 RR", Year: 2024, Price: 900000})

	sum, err := newReconciler(s).Reconcile(context.Background(), []core.Record{
		{Brand: "BMW", Name: "S 1000 RR", Year: 2024, Price: 855000},
	})
	require.NoError(t, err)
	require.Len(t, sum.Changes, 1)
	require.Equal(t, -45000.0, sum.Changes[0].PriceChange)
	require.Equal(t, -5.0, sum.Changes[0].PercentageChange)
	require.Equal(t, "BMW-S 1000 RR: 900.000 ₺ → 855.000 ₺ (-5.00%)", sum.Changes[0].String())
}

func TestAbsentRecordsAreNotTouched(t *testing.T) {
	s := memory.New()
	a := core.Record{Brand: "Kawasaki", Name: "Z 900", Year: 2024, Price: 425000}
	b := core.Record{Brand: "Kawasaki", Name: "Ninja 650", Year: 2024, Price: 295000, EngineCapacity: core.Ptr(649)}
	seed(t, s, a, b)

	before, err := s.All(context.Background())
	require.NoError(t, err)

	_, err = newReconciler(s).Reconcile(context.Background(), []core.Record{
		{Brand: "Kawasaki", Name: "Z 900", Year: 2025, Price: 439000},
	})
	require.NoError(t, err)

	after, err := s.All(context.Background())
	require.NoError(t, err)
	require.Len(t, after, 2)
	if diff := cmp.Diff(before[1], after[1]); diff != "" {
		t.Fatal(diff)
	}
}

func TestUnchangedRecordIsNoop(t *testing.T) {
	s := memory.New()
	r := core.Record{Brand: "Honda", Name: "CB 500X", Category: core.CategoryAdventure, Year: 2024, Price: 275000, Power: core.Ptr(47.0)}
	seed(t, s, r)

	sparser := r
	sparser.Power = nil
	sparser.Category = ""

	sum, err := newReconciler(s).Reconcile(context.Background(), []core.Record{r, sparser})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Unchanged)
	require.Zero(t, sum.Updated)
	require.Empty(t, s.History())
	require.Equal(t, core.Ptr(47.0), find(t, s, "Honda", "CB 500X").Power)
}

func TestNonPriceChangeUpdatesWithoutHistory(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "Honda", Name: "CB 500X", Category: core.CategoryAdventure, Year: 2024, Price: 275000})

	sum, err := newReconciler(s).Reconcile(context.Background(), []core.Record{
		{Brand: "Honda", Name: "CB 500X", Category: core.CategoryNaked, Year: 2025, Price: 275000, Specifications: map[string]any{"abs": true}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Updated)
	require.Zero(t, sum.PriceChanges())
	require.Empty(t, s.History())

	got := find(t, s, "Honda", "CB 500X")
	require.Equal(t, core.CategoryNaked, got.Category)
	require.Equal(t, 2025, got.Year)
	require.Nil(t, got.PreviousPrice)
	require.Equal(t, map[string]any{"abs": true}, got.Specifications)
}

func TestInsertCreatesBrand(t *testing.T) {
	s := memory.New()

	sum, err := newReconciler(s).Reconcile(context.Background(), []core.Record{
		{Brand: "Ducati", Name: "Monster", Year: 2025, Price: 749000},
		{Brand: "Ducati", Name: "Panigale V4", Year: 2025, Price: 1899000},
	})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Inserted)
	require.Equal(t, map[string]int64{"ducati": 1}, s.Brands())
	require.Nil(t, find(t, s, "Ducati", "Monster").PreviousPrice)
}

// faultyStore fails selected operations and logs the order of writes.
type faultyStore struct {
	core.Store
	failInsert string
	failUpdate bool
	calls      []string
}

func (f *faultyStore) Insert(ctx context.Context, brandID int64, rec core.Record) (int64, error) {
	f.calls = append(f.calls, "insert")
	if rec.Name == f.failInsert {
		return 0, errors.New("duplicate key value violates unique constraint")
	}
	return f.Store.Insert(ctx, brandID, rec)
}

func (f *faultyStore) Update(ctx context.Context, id int64, upd core.RecordUpdate) error {
	f.calls = append(f.calls, "update")
	if f.failUpdate {
		return errors.New("connection reset")
	}
	return f.Store.Update(ctx, id, upd)
}

func (f *faultyStore) InsertPriceHistory(ctx context.Context, entry core.PriceHistoryEntry) error {
	f.calls = append(f.calls, "history")
	return f.Store.InsertPriceHistory(ctx, entry)
}

func TestFailingRecordDoesNotStopBatch(t *testing.T) {
	s := memory.New()
	fs := &faultyStore{Store: s, failInsert: "Bad"}

	sum, err := newReconciler(fs).Reconcile(context.Background(), []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2025, Price: 289000},
		{Brand: "Yamaha", Name: "Bad", Year: 2025, Price: 300000},
		{Brand: "Yamaha", Name: "MT-09", Year: 2025, Price: 385000},
		{Brand: "Yamaha", Name: "Cheap", Year: 2025, Price: 500},
	})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Inserted)
	require.Len(t, sum.Failures, 2)
	require.Equal(t, core.KeyOf("Yamaha", "Bad"), sum.Failures[0].Key)
	require.ErrorContains(t, sum.Failures[0], "unique constraint")
	require.ErrorIs(t, sum.Failures[1].Err, errInvalidRecord)
}

func TestHistoryIsWrittenBeforeUpdate(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 275000})
	fs := &faultyStore{Store: s}

	_, err := newReconciler(fs).Reconcile(context.Background(), []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 289000},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"history", "update"}, fs.calls)
}

// txStore runs faultyStore inside the memory store's transactions.
type txStore struct {
	*memory.Store
	failUpdate bool
}

func (t *txStore) WithinTx(ctx context.Context, fn func(tx core.Store) error) error {
	return t.Store.WithinTx(ctx, func(tx core.Store) error {
		return fn(&faultyStore{Store: tx, failUpdate: t.failUpdate})
	})
}

func TestFailedUpdateRollsBackHistory(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 275000})

	sum, err := newReconciler(&txStore{Store: s, failUpdate: true}).Reconcile(context.Background(), []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 289000},
	})
	require.NoError(t, err)
	require.Len(t, sum.Failures, 1)
	require.Zero(t, sum.PriceChanges())
	require.Empty(t, s.History())
	require.Equal(t, 275000.0, find(t, s, "Yamaha", "MT-07").Price)
}

func TestPlanMatchesReconcile(t *testing.T) {
	stored := []core.StoredRecord{
		{ID: 1, BrandID: 1, Record: core.Record{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 275000}},
		{ID: 2, BrandID: 1, Record: core.Record{Brand: "Yamaha", Name: "MT-09", Year: 2024, Price: 385000}},
	}
	records := []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 289000},
		{Brand: "Yamaha", Name: "MT-09", Year: 2024, Price: 385000},
		{Brand: "Yamaha", Name: "XSR 900", Year: 2025, Price: 425000},
		{Brand: "yamaha", Name: "xsr  900", Year: 2025, Price: 425000},
	}

	ops := Plan(stored, records, fixedNow)
	var actions []Action
	for _, op := range ops {
		actions = append(actions, op.Action)
	}
	require.Equal(t, []Action{ActionUpdate, ActionNone, ActionInsert, ActionNone}, actions)
	require.Equal(t, int64(1), ops[0].History.RecordID)
	require.Equal(t, 5.09, ops[0].History.PercentageChange)
	require.Equal(t, 275000.0, stored[0].Price)

	sum := Summarize(ops)
	require.Equal(t, 1, sum.Inserted)
	require.Equal(t, 1, sum.Updated)
	require.Equal(t, 2, sum.Unchanged)
	require.Equal(t, 1, sum.PriceChanges())
}

func TestDiffSkipsHistoryForUnpricedRecord(t *testing.T) {
	stored := &core.StoredRecord{ID: 7, Record: core.Record{Brand: "BMW", Name: "CE 04", Year: 2024}}
	op := Diff(stored, core.Record{Brand: "BMW", Name: "CE 04", Year: 2024, Price: 410000}, fixedNow)
	require.Equal(t, ActionUpdate, op.Action)
	require.Nil(t, op.History)
	require.Nil(t, op.Update.PreviousPrice)
	require.Equal(t, core.Ptr(410000.0), op.Update.Price)
}

func TestReconcileStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newReconciler(memory.New()).Reconcile(ctx, []core.Record{{Brand: "A", Name: "B", Year: 2025, Price: 20000}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDryRunWritesNothing(t *testing.T) {
	s := memory.New()
	seed(t, s, core.Record{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 275000})

	sum, err := newReconciler(s).DryRun(context.Background(), s, []core.Record{
		{Brand: "Yamaha", Name: "MT-07", Year: 2024, Price: 289000},
		{Brand: "Yamaha", Name: "R7", Year: 2025, Price: 499000},
		{Brand: "Yamaha", Name: "Kit", Year: 2025, Price: 900},
	})
	require.NoError(t, err)
	require.Equal(t, 1, sum.Inserted)
	require.Equal(t, 1, sum.Updated)
	require.Equal(t, 1, sum.PriceChanges())
	require.Len(t, sum.Failures, 1)
	require.ErrorIs(t, sum.Failures[0].Err, errInvalidRecord)

	require.Equal(t, 275000.0, find(t, s, "Yamaha", "MT-07").Price)
	require.Empty(t, s.History())
	_, err = s.FindByIdentity(context.Background(), "Yamaha", "R7")
	require.ErrorIs(t, err, core.ErrNotFound)
}
