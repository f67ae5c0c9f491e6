package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/fleet-registry/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        gormLogger.LogLevel
}

// PostgresConfigFrom maps the application config onto connection settings.
func PostgresConfigFrom(cfg *config.Config) PostgresConfig {
	level := gormLogger.Info
	switch cfg.App.Environment {
	case "production":
		level = gormLogger.Silent
	case "staging":
		level = gormLogger.Warn
	}

	return PostgresConfig{
		DSN:             cfg.DatabaseConnectionString(),
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
	}
}

// GormConfig is shared by the live connection and statement tests.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
func GormConfig(level gormLogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError:                           true,
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// PingPostgres checks that the pool can still reach the server.
func PingPostgres(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance for closing: %w", err)
		}

		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}
