package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // Local development fallback
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Primary store (PostgreSQL)
)

// New creates a new database connection (PostgreSQL primary, MySQL for local dev)
func New(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	// Auto-detect driver from URL
	const (
		driverMySQL    = "mysql"
		driverPostgres = "postgres"
	)
	driver := driverMySQL
	if len(databaseURL) > 8 && databaseURL[:8] == driverPostgres {
		driver = driverPostgres
	}

	db, err := sqlx.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection. A store we cannot reach at startup is fatal, there is
	// no degraded mode without the message store.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
