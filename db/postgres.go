package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// DB is the process-wide connection pool, opened once at startup.
var DB *sql.DB

// Connect opens and verifies the pool. The caller supplies the DSN; this
// package never reads the environment itself.
func Connect(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database URL is empty")
	}

	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)

	if err := pool.Ping(); err != nil {
		return err
	}

	DB = pool
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}
