package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/vietddude/feedrouter/internal/routing/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// DB wraps the PostgreSQL connection.
type DB struct {
	*sqlx.DB
}

// NewDB creates a new database connection.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pool configuration
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(5)
	}

	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	} else {
		db.SetMaxIdleConns(1)
	}

	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				// MaxOpenConnections is 0 when unlimited
				if stats.MaxOpenConnections > 0 {
					usage := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections) * 100
					metrics.DBConnectionPoolUsage.Set(usage)
				}
			}
		}
	}()
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
