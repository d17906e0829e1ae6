package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/adapter/repo/sqlite"
)

// newTestStore provisions a database file in a temp dir and returns a repo
// over it together with the connection counter it reports to.
func newTestStore(t *testing.T, seed []sqlite.SeedPost) (*sqlite.PostRepo, *observability.ConnectionCounter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.db")
	require.NoError(t, sqlite.Provision(context.Background(), path, seed))

	counter := observability.NewConnectionCounter()
	acc := sqlite.NewAccessor(sqlite.Config{Path: path}, counter)
	return sqlite.NewPostRepo(acc), counter, path
}
