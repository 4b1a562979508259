package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pxi/internal/config"
	applog "pxi/internal/log"
	"pxi/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	connectTimeout = 10 * time.Second
)

// Models lists the costing schema in migration order: tenants first, then
// the registry, recipes and the items that reference them.
func Models() []any {
	return []any{
		&models.User{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeLine{},
		&models.Item{},
	}
}

// Driver names the gorm driver for url. "sqlite:" and "file:" URLs run a
// single kitchen from a local file; everything else is handed to Postgres.
func Driver(url string) string {
	lower := strings.ToLower(strings.TrimSpace(url))
	if strings.HasPrefix(lower, "sqlite:") || strings.HasPrefix(lower, "file:") {
		return DriverSQLite
	}
	return DriverPostgres
}

func dialector(url string) gorm.Dialector {
	url = strings.TrimSpace(url)
	if Driver(url) == DriverSQLite {
		if strings.HasPrefix(strings.ToLower(url), "sqlite:") {
			url = strings.TrimPrefix(url[len("sqlite:"):], "//")
		}
		return sqlite.Open(url)
	}
	return postgres.Open(url)
}

// Initialize opens the database named by cfg.URL, applies the pool limits
// and checks the connection.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	db, err := gorm.Open(dialector(cfg.URL), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
		NamingStrategy:         schema.NamingStrategy{},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", Driver(cfg.URL), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", Driver(cfg.URL), err)
	}
	return db, nil
}

// AutoMigrate creates or updates the costing schema.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}
	return db.AutoMigrate(Models()...)
}

// Configure opens and migrates the database the server and import tool run
// against.
func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	applog.Info(context.Background(), "database ready", "driver", Driver(cfg.URL), "tables", len(Models()))
	return database, nil
}
