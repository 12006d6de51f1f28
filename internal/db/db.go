// Package db owns the shared Postgres handle and the schema migrations for
// the scheduling service.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB is the process-wide connection pool, initialized by Connect.
var DB *sql.DB

// Pool sizing for a single service instance. Generation passes and schedule
// reads share these connections.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

func Connect(databaseURL string) error {
	pool, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)
	pool.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = pool
	log.Println("Connected to schedule database")
	return nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
