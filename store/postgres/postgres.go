// Package postgres is a core.Store over a PostgreSQL connection pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/store/internal/sqlrow"
)

//go:embed schema.sql
var Schema string

// DefaultMaxConns bounds the pool when the DSN does not set pool_max_conns.
const DefaultMaxConns = 4

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	queries
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if !strings.Contains(dsn, "pool_max_conns") {
		cfg.MaxConns = DefaultMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{pool: pool, queries: queries{db: pool, now: time.Now}}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// WithinTx runs fn inside one transaction, committing only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx core.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&queries{db: tx, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type queries struct {
	db  querier
	now func() time.Time
}

func (q *queries) FindByIdentity(ctx context.Context, brand, name string) (*core.StoredRecord, error) {
	ib, in := sqlrow.Identity(brand, name)
	row := q.db.QueryRow(ctx,
		`SELECT `+sqlrow.ModelColumns+` FROM models WHERE identity_brand = $1 AND identity_name = $2`, ib, in)
	rec, err := scanModel(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	var id int64
	err = q.db.QueryRow(ctx, `
		INSERT INTO models (
			brand_id, brand, name, identity_brand, identity_name, slug, category, year, price,
			previous_price, engine_capacity, power_hp, torque_nm, weight_kg, image_url, specifications, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17)
		RETURNING id`,
		brandID, rec.Brand, rec.Name, ib, in, sqlrow.ModelSlug(rec.Brand, rec.Name), string(rec.Category), rec.Year, rec.Price,
		rec.PreviousPrice, rec.EngineCapacity, rec.Power, rec.Torque, rec.Weight, rec.ImageURL, specs, q.now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", rec.Key(), err)
	}
	return id, nil
}

func (q *queries) Update(ctx context.Context, id int64, upd core.RecordUpdate) error {
	assignments, err := sqlrow.Assignments(upd)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)
	for _, a := range assignments {
		args = append(args, a.Value)
		cast := ""
		if a.Column == "specifications" {
			cast = "::jsonb"
		}
		sets = append(sets, fmt.Sprintf("%s = $%d%s", a.Column, len(args), cast))
	}
	args = append(args, q.now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	tag, err := q.db.Exec(ctx,
		fmt.Sprintf(`UPDATE models SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return fmt.Errorf("updating model %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("model %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (q *queries) InsertPriceHistory(ctx context.Context, e core.PriceHistoryEntry) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO price_history (model_id, old_price, new_price, price_change, percentage_change, change_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.RecordID, e.OldPrice, e.NewPrice, e.PriceChange, e.PercentageChange, e.ChangedAt.UTC(),
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
	err := q.db.QueryRow(ctx, `
		INSERT INTO brands (name, slug, is_active) VALUES ($1, $2, TRUE)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id`, name, slug).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring brand %s: %w", name, err)
	}
	return id, nil
}

// All returns every model ordered by id.
func (q *queries) All(ctx context.Context) ([]core.StoredRecord, error) {
	rows, err := q.db.Query(ctx, `SELECT `+sqlrow.ModelColumns+` FROM models ORDER BY id`)
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

func scanModel(row pgx.Row) (*core.StoredRecord, error) {
	var r core.StoredRecord
	var category string
	var specs *string
	err := row.Scan(
		&r.ID, &r.BrandID, &r.Brand, &r.Name, &category, &r.Year, &r.Price, &r.PreviousPrice,
		&r.EngineCapacity, &r.Power, &r.Torque, &r.Weight, &r.ImageURL, &specs, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Category = core.Category(category)
	if r.Specifications, err = sqlrow.DecodeSpecs(specs); err != nil {
		return nil, err
	}
	return &r, nil
}
