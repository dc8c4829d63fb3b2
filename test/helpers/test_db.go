package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/dmarchand/quartermaster-go/internal/infrastructure/database"
)

// NewTestDB creates a migrated in-memory SQLite database for one test and
// closes it on cleanup
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
