package database

import (
	"fmt"
	"log"
	"time"

	"canteen-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// LockForUpdate takes a row lock on MySQL. SQLite (tests) has no FOR UPDATE
// grammar; there the single-writer connection and the callers' guarded
// updates stand in.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Connect opens the MySQL store and syncs the schema. The handle is returned
// rather than stashed in a package global so services and tests can carry
// their own store.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN not configured")
	}

	var db *gorm.DB
	var err error

	// Wait for the database to come up (docker compose ordering).
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after 5 attempts: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("✅ Connected to MySQL, schema synced")
	return db, nil
}

// Migrate syncs the schema. Split out of Connect so the sqlite test store
// can reuse it.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Product{},
		&models.Bill{},
		&models.BillItem{},
		&models.InventoryLog{},
		&models.Payment{},
	)
}
