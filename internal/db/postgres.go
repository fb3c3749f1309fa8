package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgresMaxParameters is the wire-protocol limit on bind parameters per
// statement (16-bit parameter count).
const postgresMaxParameters = 65535

// PostgresAdapter opens client/server connections through the pgx stdlib
// driver, so the stores speak database/sql against both engines.
type PostgresAdapter struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// MaxParams overrides the parameter ceiling, 0 means the engine default.
	MaxParams int
}

// DSN returns the connection string.
func (a *PostgresAdapter) DSN() string {
	port := a.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		a.User, a.Password, a.Host, port, a.Database)
}

// Open opens a connection and verifies it with a ping. An unreachable server
// is reported as ErrUnavailable so callers can degrade instead of failing.
// The create flag has no meaning here; the database must already exist.
func (a *PostgresAdapter) Open(create bool) (*sql.DB, error) {
	conn, err := sql.Open("pgx", a.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres: %v: %w", err, ErrUnavailable)
	}
	return conn, nil
}

// Kind reports Postgres.
func (a *PostgresAdapter) Kind() Kind { return Postgres }

// MaxParameters returns the bound-parameter ceiling for one statement.
func (a *PostgresAdapter) MaxParameters() int {
	if a.MaxParams > 0 {
		return a.MaxParams
	}
	return postgresMaxParameters
}

// TruncatesDates is false: timestamps keep millisecond precision.
func (a *PostgresAdapter) TruncatesDates() bool { return false }

// CaseSensitiveCollation is false: the case-sensitive columns compare however
// the server collation says, a documented divergence from the embedded engine.
func (a *PostgresAdapter) CaseSensitiveCollation() bool { return false }

// Placeholder returns the $n marker for the n-th parameter.
func (a *PostgresAdapter) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// TruncateDate reduces t to millisecond precision.
func (a *PostgresAdapter) TruncateDate(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}
