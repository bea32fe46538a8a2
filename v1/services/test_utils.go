package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akpsi-umich/portal-backend/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing.
// The pool is pinned to one connection so every query sees the same database.
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.MemberRecord{}, &models.RushSettings{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupMockDB opens GORM over sqlmock with the postgres dialector for SQL-shape assertions
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	var db *sql.DB
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}
	return gormDB, mock
}

// SeedMember inserts a record for tests and returns it
func SeedMember(t *testing.T, db *gorm.DB, record models.MemberRecord) *models.MemberRecord {
	if record.Email == "" {
		record.Email = record.UserID + "@umich.edu"
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to seed member record: %v", err)
	}
	return &record
}

// SetStage stores the current rush stage
func SetStage(t *testing.T, db *gorm.DB, stage models.RushStage) {
	settings := models.RushSettings{ID: models.RushSettingsID, CurrentStage: string(stage)}
	if err := db.Save(&settings).Error; err != nil {
		t.Fatalf("Failed to set rush stage: %v", err)
	}
}
