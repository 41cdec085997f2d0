package persist

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/config"
	"github.com/gridforge/editor/internal/level"
)

func TestCountTiles(t *testing.T) {
	n, err := countTiles([]byte(`{"tileInfos":[{"x":1},{"x":2}]}`))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = countTiles([]byte(`[`))
	require.Error(t, err)
}

// TestLevelRepo runs against a real database when TILEEDITOR_TEST_DSN is set.
func TestLevelRepo(t *testing.T) {
	dsn := os.Getenv("TILEEDITOR_TEST_DSN")
	if dsn == "" {
		t.Skip("TILEEDITOR_TEST_DSN not set")
	}
	ctx := context.Background()
	cfg := config.Default().Database
	cfg.DSN = dsn
	db, err := NewDB(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db.Pool))

	repo := NewLevelRepo(db, zap.NewNop())
	const name = "repo-test"
	if err := repo.Delete(ctx, name); err != nil {
		require.ErrorIs(t, err, level.ErrNotFound)
	}
	raw := []byte(`{"tileInfos":[{"x":1,"z":2,"yRotation":90,"modelType":"straight"}]}`)

	written, err := repo.Save(ctx, name, raw)
	require.NoError(t, err)
	require.True(t, written)
	written, err = repo.Save(ctx, name, raw)
	require.NoError(t, err)
	require.False(t, written)

	got, err := repo.Load(ctx, name)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(got))

	info, err := repo.Info(ctx, name)
	require.NoError(t, err)
	require.Equal(t, 1, info.Tiles)
	require.Equal(t, 1, info.Revision)
	require.Equal(t, level.Checksum(raw), info.Checksum)

	names, err := repo.List(ctx)
	require.NoError(t, err)
	require.Contains(t, names, name)

	_, err = repo.Load(ctx, "does-not-exist")
	require.ErrorIs(t, err, level.ErrNotFound)
	_, err = repo.Info(ctx, "does-not-exist")
	require.ErrorIs(t, err, level.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, name))
	require.ErrorIs(t, repo.Delete(ctx, name), level.ErrNotFound)
	_, err = repo.Load(ctx, name)
	require.ErrorIs(t, err, level.ErrNotFound)
}
