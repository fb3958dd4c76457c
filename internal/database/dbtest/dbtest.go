// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"ajatus_server/internal/database"

	"gorm.io/gorm"
)

// New returns a fresh, migrated in-memory SQLite database closed at test cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite://")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.InitDB(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
