// Package memory is an in-process core.Store. It backs tests and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gaurav-prasanna/motopipe/core"
)

type state struct {
	brands     map[string]int64
	records    map[int64]core.StoredRecord
	byKey      map[core.IdentityKey]int64
	history    []core.PriceHistoryEntry
	nextBrand  int64
	nextRecord int64
}

func newState() *state {
	return &state{
		brands:  make(map[string]int64),
		records: make(map[int64]core.StoredRecord),
		byKey:   make(map[core.IdentityKey]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		brands:     make(map[string]int64, len(s.brands)),
		records:    make(map[int64]core.StoredRecord, len(s.records)),
		byKey:      make(map[core.IdentityKey]int64, len(s.byKey)),
		history:    append([]core.PriceHistoryEntry(nil), s.history...),
		nextBrand:  s.nextBrand,
		nextRecord: s.nextRecord,
	}
	for k, v := range s.brands {
		c.brands[k] = v
	}
	for k, v := range s.records {
		v.Record = v.Record.Clone()
		c.records[k] = v
	}
	for k, v := range s.byKey {
		c.byKey[k] = v
	}
	return c
}

// Store keeps brands, records and price history in maps guarded by a mutex.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

func (s *Store) FindByIdentity(_ context.Context, brand, name string) (*core.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.find(brand, name)
}

func (s *Store) Insert(_ context.Context, brandID int64, rec core.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.insert(brandID, rec, s.now())
}

func (s *Store) Update(_ context.Context, id int64, upd core.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.update(id, upd, s.now())
}

func (s *Store) InsertPriceHistory(_ context.Context, entry core.PriceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.insertHistory(entry)
}

func (s *Store) EnsureBrand(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ensureBrand(name)
}

// WithinTx runs fn against a private copy of the store and publishes the
// copy only when fn succeeds. Transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&txStore{state: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Close() error { return nil }

// All returns every stored record ordered by id.
func (s *Store) All(context.Context) ([]core.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.StoredRecord, 0, len(s.state.records))
	for _, r := range s.state.records {
		r.Record = r.Record.Clone()
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// History returns the price history in insertion order.
func (s *Store) History() []core.PriceHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PriceHistoryEntry(nil), s.state.history...)
}

// Brands returns the known brand names and their ids.
func (s *Store) Brands() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.state.brands))
	for k, v := range s.state.brands {
		out[k] = v
	}
	return out
}

// txStore is the view handed to a transaction; its caller holds the lock.
type txStore struct {
	state *state
	now   func() time.Time
}

func (t *txStore) FindByIdentity(_ context.Context, brand, name string) (*core.StoredRecord, error) {
	return t.state.find(brand, name)
}

func (t *txStore) Insert(_ context.Context, brandID int64, rec core.Record) (int64, error) {
	return t.state.insert(brandID, rec, t.now())
}

func (t *txStore) Update(_ context.Context, id int64, upd core.RecordUpdate) error {
	return t.state.update(id, upd, t.now())
}

func (t *txStore) InsertPriceHistory(_ context.Context, entry core.PriceHistoryEntry) error {
	return t.state.insertHistory(entry)
}

func (t *txStore) EnsureBrand(_ context.Context, name string) (int64, error) {
	return t.state.ensureBrand(name)
}

func (s *state) find(brand, name string) (*core.StoredRecord, error) {
	id, ok := s.byKey[core.KeyOf(brand, name)]
	if !ok {
		return nil, core.ErrNotFound
	}
	r := s.records[id]
	r.Record = r.Record.Clone()
	return &r, nil
}

func (s *state) insert(brandID int64, rec core.Record, now time.Time) (int64, error) {
	key := rec.Key()
	if _, ok := s.byKey[key]; ok {
		return 0, fmt.Errorf("record %s already exists", key)
	}
	if !s.hasBrand(brandID) {
		return 0, fmt.Errorf("brand %d does not exist", brandID)
	}
	s.nextRecord++
	id := s.nextRecord
	s.records[id] = core.StoredRecord{ID: id, BrandID: brandID, Record: rec.Clone(), UpdatedAt: now}
	s.byKey[key] = id
	return id, nil
}

func (s *state) update(id int64, upd core.RecordUpdate, now time.Time) error {
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("record %d: %w", id, core.ErrNotFound)
	}
	r.Record = upd.Apply(r.Record).Clone()
	r.UpdatedAt = now
	s.records[id] = r
	return nil
}

func (s *state) insertHistory(entry core.PriceHistoryEntry) error {
	if _, ok := s.records[entry.RecordID]; !ok {
		return fmt.Errorf("price history for record %d: %w", entry.RecordID, core.ErrNotFound)
	}
	s.history = append(s.history, entry)
	return nil
}

func (s *state) ensureBrand(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("brand name is empty")
	}
	key := strings.ToLower(name)
	if id, ok := s.brands[key]; ok {
		return id, nil
	}
	s.nextBrand++
	s.brands[key] = s.nextBrand
	return s.nextBrand, nil
}

func (s *state) hasBrand(id int64) bool {
	for _, v := range s.brands {
		if v == id {
			return true
		}
	}
	return false
}
