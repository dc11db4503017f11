package Models

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Open opens the local store at path, creating the file and its directory
// when missing, and migrates every collection.
func Open(path string, logger gormLogger.Interface) (*gorm.DB, error) {
	if logger == nil {
		logger = NewGormLogger(gormLogger.Warn)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Error creating data directory: %v\n", err)
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	// foreign keys stay off: leaves keep a copy of their leave type
	connection, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger,
	})
	if err != nil {
		log.Printf("Error opening database %s: %v\n", path, err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(connection); err != nil {
		log.Printf("Error migrating database: %v\n", err)
		Close(connection)
		return nil, err
	}

	log.Printf("Database ready at %s\n", path)
	return connection, nil
}

// Migrate creates or updates the tables of every collection.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Attendance{},
		&LeaveType{},
		&Leave{},
		&Setting{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database handle: %v\n", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v\n", err)
	}
}
