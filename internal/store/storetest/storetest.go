// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/Alijeyrad/staylink_backend/internal/store"
	"github.com/Alijeyrad/staylink_backend/pkg/database"
)

// Open returns a migrated store backed by a fresh SQLite file and the
// underlying DB so tests can close it to simulate an outage.
func Open(t testing.TB) (*store.Store, *database.DB) {
	t.Helper()

	db, err := database.New(database.Config{
		Driver:      database.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "staylink.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return store.New(db), db
}
