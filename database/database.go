package database

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"easyform/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init initializes the database connection.
// It uses the DSN from the application config.
// For "memory", it uses an in-memory SQLite database.
// For other DSNs, it assumes a file-based SQLite database.
func Init() (*gorm.DB, error) {
	var err error
	dsn := config.AppConfig.Database.DSN

	// GORM logger configuration
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold (gorm logger default)
			LogLevel:                  logger.Warn,                 // Log level (Warn, Error, Info)
			IgnoreRecordNotFoundError: true,                        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,
		},
	)

	gormConfig := &gorm.Config{
		Logger: gormLogger,
	}

	if dsn == "memory" || dsn == "" { // Treat empty DSN as in-memory for safety
		log.Println("INFO: [Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
		dsn = "file::memory:?cache=shared"
	} else {
		// Ensure the directory for a file-based database exists.
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				log.Printf("ERROR: [Database] Failed to create directory '%s' for database file: %v", dir, mkErr)
				return nil, mkErr
			}
		}
		log.Printf("INFO: [Database] Initializing file-based SQLite database at '%s'.", dsn)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		log.Printf("ERROR: [Database] Failed to open database connection: %v", err)
		return nil, err
	}

	log.Println("INFO: [Database] Database connection established.")
	return db, nil
}
