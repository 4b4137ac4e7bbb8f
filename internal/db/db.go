// Package db opens the PostgreSQL connection pool used by the repositories.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 5 * time.Second

// ErrEmptyURL is returned when Open is called without a connection string.
var ErrEmptyURL = errors.New("database URL is empty")

// PoolConfig limits the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns limits suited to a single API instance.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Open connects to PostgreSQL at url and verifies the connection.
// The returned pool is closed if the ping fails.
func Open(ctx context.Context, url string, pool PoolConfig) (*sql.DB, error) {
	return open(ctx, DriverName, url, pool)
}

func open(ctx context.Context, driver, url string, pool PoolConfig) (*sql.DB, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
