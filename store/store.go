// Package store opens the persistence backend named in configuration.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaurav-prasanna/motopipe/config"
	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/store/memory"
	"github.com/gaurav-prasanna/motopipe/store/postgres"
	"github.com/gaurav-prasanna/motopipe/store/sqlite"
)

// Backend is a store that supports transactions and listing.
type Backend interface {
	core.Store
	core.Transactor
	core.Lister
	Close() error
}

// Open returns the backend for cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (Backend, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "motopipe.db"
		}
		s, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("postgres store needs a dsn")
		}
		s, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
