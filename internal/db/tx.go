package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Queryer is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// store code runs unchanged inside and outside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StrictTx is the single-level transaction manager used by the flight/aircraft
// store. Starting a second transaction while one is active is an error; there
// is no nesting.
type StrictTx struct {
	db *sql.DB
	tx *sql.Tx
}

// NewStrictTx returns a manager bound to conn.
func NewStrictTx(conn *sql.DB) *StrictTx {
	return &StrictTx{db: conn}
}

// Queryer returns the active transaction if one is open, the connection
// otherwise.
func (m *StrictTx) Queryer() Queryer {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

// InTransaction reports whether a transaction is open.
func (m *StrictTx) InTransaction() bool { return m.tx != nil }

// Begin starts a transaction. A transaction already in progress yields
// ErrNestedTransaction.
func (m *StrictTx) Begin(ctx context.Context) error {
	if m.tx != nil {
		return ErrNestedTransaction
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	m.tx = tx
	return nil
}

// Commit commits the open transaction.
func (m *StrictTx) Commit() error {
	if m.tx == nil {
		return fmt.Errorf("commit outside transaction: %w", ErrValidation)
	}
	err := m.tx.Commit()
	m.tx = nil
	return err
}

// Rollback abandons the open transaction.
func (m *StrictTx) Rollback() error {
	if m.tx == nil {
		return fmt.Errorf("rollback outside transaction: %w", ErrValidation)
	}
	err := m.tx.Rollback()
	m.tx = nil
	return err
}

// Perform runs fn inside a transaction: commit when fn returns true, rollback
// when it returns false or panics. Panics are rethrown after the rollback.
func (m *StrictTx) Perform(ctx context.Context, fn func() bool) error {
	if err := m.Begin(ctx); err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed && m.tx != nil {
			_ = m.Rollback()
		}
	}()

	if fn() {
		committed = true
		return m.Commit()
	}
	return m.Rollback()
}

// CountedTx is the counted-nesting transaction manager used by the
// track-history store. Only the outermost Begin/Commit pair touches storage;
// a Rollback at any depth forces the whole outer transaction to roll back,
// regardless of how the other levels complete.
type CountedTx struct {
	db       *sql.DB
	tx       *sql.Tx
	depth    int
	poisoned bool
}

// NewCountedTx returns a manager bound to conn.
func NewCountedTx(conn *sql.DB) *CountedTx {
	return &CountedTx{db: conn}
}

// Queryer returns the active transaction if one is open, the connection
// otherwise.
func (m *CountedTx) Queryer() Queryer {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

// Depth reports the current nesting depth.
func (m *CountedTx) Depth() int { return m.depth }

// Begin enters a transaction level. Only the first level opens a storage
// transaction.
func (m *CountedTx) Begin(ctx context.Context) error {
	if m.depth == 0 {
		tx, err := m.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		m.tx = tx
		m.poisoned = false
	}
	m.depth++
	return nil
}

// Commit leaves one transaction level. The storage transaction commits when
// the outermost level ends, unless an inner Rollback poisoned it, in which
// case the whole transaction rolls back.
func (m *CountedTx) Commit() error {
	if m.depth == 0 {
		return fmt.Errorf("commit outside transaction: %w", ErrValidation)
	}
	m.depth--
	if m.depth > 0 {
		return nil
	}

	tx := m.tx
	m.tx = nil
	if m.poisoned {
		return tx.Rollback()
	}
	return tx.Commit()
}

// Rollback leaves one transaction level and marks the whole transaction for
// rollback.
func (m *CountedTx) Rollback() error {
	if m.depth == 0 {
		return fmt.Errorf("rollback outside transaction: %w", ErrValidation)
	}
	m.poisoned = true
	m.depth--
	if m.depth > 0 {
		return nil
	}

	tx := m.tx
	m.tx = nil
	return tx.Rollback()
}
