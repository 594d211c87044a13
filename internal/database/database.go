// Package database opens the gorm connection and owns the schema migrations.
package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/modules/payments"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// Models lists every table the app writes through gorm.
func Models() []any {
	return []any{&docstore.Row{}, &auth.Credential{}, &auth.Session{}, &payments.ProviderEvent{}}
}

func Open(cfg config.DBConfig, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	var dial gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dial = mysql.Open(cfg.DSN)
	case "sqlite":
		dial = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("database: unknown driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	log.Info("database_opened", "driver", cfg.Driver)
	return db, nil
}

// AutoMigrate creates the tables straight from the gorm models. Used for
// throwaway sqlite databases; real deployments run the goose migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func Up(ctx context.Context, db *gorm.DB) error {
	return withGoose(db, func(dir string) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return goose.UpContext(ctx, sqlDB, dir)
	})
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *gorm.DB) error {
	return withGoose(db, func(dir string) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return goose.DownContext(ctx, sqlDB, dir)
	})
}

// Status logs each migration with its applied time through goose's logger.
func Status(ctx context.Context, db *gorm.DB) error {
	return withGoose(db, func(dir string) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return goose.StatusContext(ctx, sqlDB, dir)
	})
}

// Version reports the current schema version.
func Version(ctx context.Context, db *gorm.DB) (int64, error) {
	var v int64
	err := withGoose(db, func(string) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		v, err = goose.GetDBVersionContext(ctx, sqlDB)
		return err
	})
	return v, err
}

func withGoose(db *gorm.DB, fn func(dir string) error) error {
	name := db.Dialector.Name()
	dialect, dir := "mysql", "migrations/mysql"
	if name == "sqlite" {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}

	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("database: goose dialect: %w", err)
	}
	if err := fn(dir); err != nil {
		return fmt.Errorf("database: migrate %s: %w", name, err)
	}
	return nil
}
