// Package sqlite is a core.Store over an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/store/internal/sqlrow"
)

//go:embed schema.sql
var Schema string

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists records in SQLite. Writes are serialized on one connection.
type Store struct {
	db *sql.DB
	queries
}

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, queries: queries{db: db, now: time.Now}}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside one transaction, committing only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx core.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// queries implements core.Store over a connection or a transaction.
type queries struct {
	db  dbtx
	now func() time.Time
}

func (q *queries) FindByIdentity(ctx context.Context, brand, name string) (*core.StoredRecord, error) {
	ib, in := sqlrow.Identity(brand, name)
	row := q.db.QueryRowContext(ctx,
		`SELECT `+sqlrow.ModelColumns+` FROM models WHERE identity_brand = ? AND identity_name = ?`, ib, in)
	rec, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s/%s: %w", brand, name, err)
	}
	return rec, nil
}

func (q *queries) Insert(ctx context.Context, brandID int64, rec core.Record) (int64, error) {
	specs, err := sqlrow.EncodeSpecs(rec.Specifications)
	if err != nil {
		return 0, err
	}
	ib, in := sqlrow.Identity(rec.Brand, rec.Name)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO models (
			brand_id, brand, name, identity_brand, identity_name, slug, category, year, price,
			previous_price, engine_capacity, power_hp, torque_nm, weight_kg, image_url, specifications, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		brandID, rec.Brand, rec.Name, ib, in, sqlrow.ModelSlug(rec.Brand, rec.Name), string(rec.Category), int64(rec.Year), rec.Price,
		sqlrow.Float(rec.PreviousPrice), sqlrow.Int(rec.EngineCapacity), sqlrow.Float(rec.Power), sqlrow.Float(rec.Torque),
		sqlrow.Int(rec.Weight), rec.ImageURL, sqlrow.Text(specs), q.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", rec.Key(), err)
	}
	return res.LastInsertId()
}

func (q *queries) Update(ctx context.Context, id int64, upd core.RecordUpdate) error {
	assignments, err := sqlrow.Assignments(upd)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)
	for _, a := range assignments {
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, q.now().Unix(), id)

	res, err := q.db.ExecContext(ctx, `UPDATE models SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating model %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("model %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (q *queries) InsertPriceHistory(ctx context.Context, e core.PriceHistoryEntry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO price_history (model_id, old_price, new_price, price_change, percentage_change, change_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RecordID, e.OldPrice, e.NewPrice, e.PriceChange, e.PercentageChange, e.ChangedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting price history of model %d: %w", e.RecordID, err)
	}
	return nil
}

func (q *queries) EnsureBrand(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	slug := sqlrow.BrandSlug(name)
	if slug == "" {
		return 0, fmt.Errorf("brand name %q has no slug", name)
	}

	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM brands WHERE slug = ?`, slug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("finding brand %s: %w", name, err)
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO brands (name, slug, is_active, created_at) VALUES (?, ?, 1, ?)`, name, slug, q.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("inserting brand %s: %w", name, err)
	}
	return res.LastInsertId()
}

// All returns every model ordered by id.
func (q *queries) All(ctx context.Context) ([]core.StoredRecord, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+sqlrow.ModelColumns+` FROM models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var out []core.StoredRecord
	for rows.Next() {
		rec, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// History returns the price history of one model, oldest first.
func (q *queries) History(ctx context.Context, modelID int64) ([]core.PriceHistoryEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT h.model_id, m.brand, m.name, h.old_price, h.new_price, h.price_change, h.percentage_change, h.change_date
		FROM price_history h JOIN models m ON m.id = h.model_id
		WHERE h.model_id = ?
		ORDER BY h.change_date, h.id`, modelID)
	if err != nil {
		return nil, fmt.Errorf("listing price history: %w", err)
	}
	defer rows.Close()

	var out []core.PriceHistoryEntry
	for rows.Next() {
		var e core.PriceHistoryEntry
		var changed int64
		if err := rows.Scan(&e.RecordID, &e.Brand, &e.Name, &e.OldPrice, &e.NewPrice, &e.PriceChange, &e.PercentageChange, &changed); err != nil {
			return nil, fmt.Errorf("scanning price history: %w", err)
		}
		e.ChangedAt = time.Unix(changed, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (*core.StoredRecord, error) {
	var r core.StoredRecord
	var category string
	var specs *string
	var updated int64
	err := row.Scan(
		&r.ID, &r.BrandID, &r.Brand, &r.Name, &category, &r.Year, &r.Price, &r.PreviousPrice,
		&r.EngineCapacity, &r.Power, &r.Torque, &r.Weight, &r.ImageURL, &specs, &updated,
	)
	if err != nil {
		return nil, err
	}
	r.Category = core.Category(category)
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	if r.Specifications, err = sqlrow.DecodeSpecs(specs); err != nil {
		return nil, err
	}
	return &r, nil
}
