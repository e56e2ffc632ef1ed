// Package testutil provides shared test helpers for storage backends and a
// seeded console.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/fixtures"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/storage"
)

// TestFS creates a temporary file-backed storage.Provider.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestSQLite creates a temporary SQLite storage.Provider that is closed on cleanup.
func TestSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "vena-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Dataset returns a fresh copy of the embedded fixtures.
func Dataset(t *testing.T) *models.Dataset {
	t.Helper()
	ds, err := fixtures.Load()
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

// Console builds a console over the fixtures and a temporary fs flag store.
// The session delay is shortened to a millisecond unless opts override it.
func Console(t *testing.T, opts ...console.Option) (*console.Console, storage.Provider) {
	t.Helper()
	_, fs := TestFS(t)
	opts = append([]console.Option{
		console.WithSessionOptions(session.WithDelay(time.Millisecond)),
	}, opts...)
	c, err := console.New(Dataset(t), session.NewFlagStore(fs), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c, fs
}
