package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PoolOptions sizes the database/sql connection pool.
type PoolOptions struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func Connect(dsn string, pool PoolOptions) (*sqlx.DB, error) {
	// Parse DSN → pgx config struct
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: failed to parse DSN: %w", err)
	}

	// Fail fast on startup if PG is unreachable
	cfg.ConnectTimeout = 5 * time.Second

	// Create sql.DB using pgx's stdlib adapter
	sqlDB := stdlib.OpenDB(*cfg)

	// Wrap in sqlx for struct scanning
	db := sqlx.NewDb(sqlDB, "pgx")

	// ---- Connection Pool Settings ----
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ---- Connectivity Check ----
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: failed to connect to Postgres: %w", err)
	}

	// ---- Health Check Query ----
	var tmp int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&tmp); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: health check failed: %w", err)
	}

	return db, nil
}
