package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/monocle-dev/wishlist/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the store for the given driver ("postgres" or "sqlite").
// The returned handle is owned by the caller and must be released with Close.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; one connection keeps transactions
		// from tripping over SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func MigrateDatabase(db *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.PrivacySettings{},
		&models.Contact{},
		&models.Wish{},
		&models.Notification{},
		&models.ReputationVote{},
	}

	migrator := db.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := db.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
