package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/motopipe/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, config.Store{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	lite, err := Open(ctx, config.Store{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "motopipe.db")})
	require.NoError(t, err)
	all, err := lite.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	require.NoError(t, lite.Close())

	_, err = Open(ctx, config.Store{Driver: "postgres"})
	require.ErrorContains(t, err, "needs a dsn")

	_, err = Open(ctx, config.Store{Driver: "mysql"})
	require.ErrorContains(t, err, "unknown store driver")
}
