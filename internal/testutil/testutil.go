// Package testutil provides shared test helpers for setting up vaults and indexes.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/linkfinder/internal/index"
	"github.com/starford/linkfinder/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Seed writes files (path -> content) into store.
func Seed(t *testing.T, store storage.Provider, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
}

// TestBuilder seeds a fresh vault with files and returns a builder whose
// index has been rebuilt from it.
func TestBuilder(t *testing.T, files map[string]string, opts ...index.Option) (*storage.FS, *index.Builder) {
	t.Helper()
	_, store := TestVault(t)
	Seed(t, store, files)
	b := index.NewBuilder(index.New(opts...), store, nil, Logger())
	if _, err := b.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return store, b
}
