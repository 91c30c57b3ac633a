package agoratest

import (
	"path/filepath"
	"testing"

	"github.com/lunagic/agora/agoraservices/database"
	"gotest.tools/v3/assert"
)

// NewDatabase is a migrated SQLite database in a temporary directory, closed
// when the test ends.
func NewDatabase(t *testing.T, entities []database.Entity) *database.Service {
	t.Helper()

	service, err := database.New(database.NewDriverSQLite(filepath.Join(t.TempDir(), "database.sqlite")))
	assert.NilError(t, err)
	t.Cleanup(func() {
		_ = service.Close()
	})

	_, err = service.AutoMigrate(t.Context(), entities)
	assert.NilError(t, err)

	return service
}
