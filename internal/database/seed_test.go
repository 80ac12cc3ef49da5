package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minddump/auditd/internal/models"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A private in-memory database lives on a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func TestSeedDemoDataPopulatesEmptyDatabase(t *testing.T) {
	db := newSeedTestDB(t)

	require.NoError(t, SeedDemoData(db))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Equal(t, int64(8), count)

	var record models.AuditLog
	require.NoError(t, db.Where("action = ?", "entry_created").Order("id ASC").First(&record).Error)
	require.Equal(t, "entry", record.EntityType)
	require.NotNil(t, record.UserID)
	require.NotNil(t, record.Metadata)
	require.Contains(t, *record.Metadata, "wordCount")
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	db := newSeedTestDB(t)

	require.NoError(t, SeedDemoData(db))
	require.NoError(t, SeedDemoData(db))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Equal(t, int64(8), count)
}

func TestSeedDemoDataSkipsNonEmptyTable(t *testing.T) {
	db := newSeedTestDB(t)

	existing := models.AuditLog{Action: "app_loaded", EntityType: "system"}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, SeedDemoData(db))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
