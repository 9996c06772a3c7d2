// Package testutil provides shared test helpers for setting up graph stores and photo storage.
package testutil

import (
	"os"
	"testing"

	"github.com/alexedwards/argon2id"

	"github.com/starford/offcuts/internal/auth/password"
	"github.com/starford/offcuts/internal/sqlgraph"
	"github.com/starford/offcuts/internal/storage"
)

// FastHasher returns an argon2id hasher with parameters cheap enough for tests.
func FastHasher() *password.Hasher {
	return password.New(&argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

// TestGraph creates a temporary SQLite graph that is automatically cleaned up.
func TestGraph(t *testing.T) *sqlgraph.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "offcuts-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := sqlgraph.Open(dbFile.Name(), FastHasher())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPhotos creates a temporary photo directory with a storage.Provider.
func TestPhotos(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
