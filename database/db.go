package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Init opens the sqlite database at path and migrates the schema.
// Must be called once before any other function in this package.
func Init(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	var err error
	db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&Rule{},
		&DownloadTask{},
		&ChatCursor{},
		&ConfigItem{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Debugf("database ready at %s", path)
	return nil
}

// Close releases the underlying connection pool.
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
