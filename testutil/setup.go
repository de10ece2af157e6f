package testutil

import (
	"fmt"
	"testing"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an isolated in-memory SQLite database and runs
// AutoMigrate. No external services needed; safe for parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// unique shared-cache name so the pool's connections see one database
	// while separate tests stay isolated
	dsn := fmt.Sprintf("file:testdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "SetupTestDB: open sqlite")

	require.NoError(t, db.AutoMigrate(
		&models.Task{},
		&models.Completion{},
		&models.Profile{},
		&models.XPEvent{},
		&models.Trophy{},
		&models.TrophyUnlock{},
	), "SetupTestDB: AutoMigrate")

	return db
}
