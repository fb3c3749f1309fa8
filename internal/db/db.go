// Package db provides the backend adapter surface shared by the aircraft and
// track-history stores: connection opening for the two supported engines,
// parameter-limit reporting, per-backend capability flags, transaction
// managers and chunked multi-key helpers.
package db

import (
	"database/sql"
	"errors"
	"time"
)

// Kind identifies a supported backend engine.
type Kind int

const (
	// SQLite is the embedded file engine.
	SQLite Kind = iota
	// Postgres is the client/server engine.
	Postgres
)

// String returns the engine name.
func (k Kind) String() string {
	switch k {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

var (
	// ErrUnavailable indicates the underlying storage cannot be reached: a
	// missing or zero-length database file, or an unreachable server. Read
	// paths degrade to empty results on it; write paths become silent no-ops.
	ErrUnavailable = errors.New("db: storage unavailable")

	// ErrWriteDisabled is returned by mutating operations when the owning
	// repository's write support is switched off.
	ErrWriteDisabled = errors.New("db: write support is disabled")

	// ErrNestedTransaction is returned by the strict transaction manager when
	// a transaction is started while another is already in progress.
	ErrNestedTransaction = errors.New("db: transaction already in progress")

	// ErrValidation wraps all argument/field validation failures. These are
	// raised synchronously, before any storage access.
	ErrValidation = errors.New("db: validation")
)

// Adapter describes one backend engine. Adapters are cheap value-like objects;
// the repositories own the actual connections they open.
type Adapter interface {
	// Open opens a connection to the storage. When create is false a missing
	// or empty target is reported as ErrUnavailable and is never created as a
	// side effect. When create is true missing storage is initialised.
	Open(create bool) (*sql.DB, error)

	// Kind reports the engine.
	Kind() Kind

	// MaxParameters is the engine's bound-parameter ceiling for one statement.
	MaxParameters() int

	// TruncatesDates reports whether the engine truncates stored timestamps
	// to whole seconds.
	TruncatesDates() bool

	// CaseSensitiveCollation reports whether the engine enforces the
	// per-column case-sensitivity rules itself. When false, case sensitivity
	// of the case-sensitive columns is governed by server collation.
	CaseSensitiveCollation() bool

	// Placeholder returns the bound-parameter marker for the n-th parameter
	// (1-based).
	Placeholder(n int) string

	// TruncateDate reduces t to the precision the engine will actually store.
	TruncateDate(t time.Time) time.Time
}
