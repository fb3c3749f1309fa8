package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteMaxParameters mirrors SQLITE_MAX_VARIABLE_NUMBER as shipped by the
// driver's default build.
const sqliteMaxParameters = 999

// SQLiteAdapter opens embedded database files. The zero Path means an
// in-memory database, useful for tests.
type SQLiteAdapter struct {
	Path string

	// MaxParams overrides the parameter ceiling, 0 means the engine default.
	// Tests use a tiny value to exercise chunked lookups.
	MaxParams int
}

// Open opens the database file. A missing or zero-length file is reported as
// ErrUnavailable unless create is set; reads against a file that is not there
// must not bring it into existence.
func (a *SQLiteAdapter) Open(create bool) (*sql.DB, error) {
	path := a.Path
	if path == "" {
		path = ":memory:"
	}

	if !create && !isMemoryPath(path) {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			return nil, fmt.Errorf("sqlite file %q: %w", path, ErrUnavailable)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One repository instance owns one connection; this also keeps an
	// in-memory database visible across statements.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Kind reports SQLite.
func (a *SQLiteAdapter) Kind() Kind { return SQLite }

// MaxParameters returns the bound-parameter ceiling for one statement.
func (a *SQLiteAdapter) MaxParameters() int {
	if a.MaxParams > 0 {
		return a.MaxParams
	}
	return sqliteMaxParameters
}

// TruncatesDates is true: stored timestamps lose sub-second precision.
func (a *SQLiteAdapter) TruncatesDates() bool { return true }

// CaseSensitiveCollation is true: per-column NOCASE collation lets the engine
// honour the case-sensitivity rules exactly.
func (a *SQLiteAdapter) CaseSensitiveCollation() bool { return true }

// Placeholder returns "?" regardless of position.
func (a *SQLiteAdapter) Placeholder(int) string { return "?" }

// TruncateDate drops sub-second precision, matching what a round trip through
// the file yields.
func (a *SQLiteAdapter) TruncateDate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
