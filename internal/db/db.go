package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"apptracker/internal/model"
)

// Open returns a connected GORM DB instance for the given driver. Storage
// errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return db, nil
}

// NewConfig is the gorm configuration shared by the server, the seed tool and tests.
func NewConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// Migrate creates or updates the users and applications tables. When reset is
// true both tables are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	if reset {
		// applications references users, so drop it first.
		for _, table := range []interface{}{&model.Application{}, &model.User{}} {
			if err := db.Migrator().DropTable(table); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}

	if err := db.AutoMigrate(&model.User{}, &model.Application{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
