package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

// openTestDB opens an in-memory database with a single counter table.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	adapter := &SQLiteAdapter{}
	conn, err := adapter.Open(true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if _, err := conn.Exec(`CREATE TABLE counters (n INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM counters`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func insertRow(t *testing.T, q Queryer) {
	t.Helper()
	if _, err := q.ExecContext(context.Background(), `INSERT INTO counters (n) VALUES (1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestStrictTxRejectsNesting(t *testing.T) {
	ctx := context.Background()
	m := NewStrictTx(openTestDB(t))

	if err := m.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.Begin(ctx); !errors.Is(err, ErrNestedTransaction) {
		t.Fatalf("expected ErrNestedTransaction, got %v", err)
	}
	if err := m.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}

func TestStrictTxPerform(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	m := NewStrictTx(conn)

	// fn returning true commits.
	if err := m.Perform(ctx, func() bool {
		insertRow(t, m.Queryer())
		return true
	}); err != nil {
		t.Fatalf("perform: %v", err)
	}
	if n := countRows(t, conn); n != 1 {
		t.Fatalf("expected 1 row after commit, got %d", n)
	}

	// fn returning false rolls back.
	if err := m.Perform(ctx, func() bool {
		insertRow(t, m.Queryer())
		return false
	}); err != nil {
		t.Fatalf("perform: %v", err)
	}
	if n := countRows(t, conn); n != 1 {
		t.Fatalf("expected rollback to discard the insert, got %d rows", n)
	}
}

func TestStrictTxPerformRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	m := NewStrictTx(conn)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = m.Perform(ctx, func() bool {
			insertRow(t, m.Queryer())
			panic("boom")
		})
	}()

	if m.InTransaction() {
		t.Fatalf("transaction still open after panic")
	}
	if n := countRows(t, conn); n != 0 {
		t.Fatalf("expected panic to roll back, got %d rows", n)
	}
}

func TestCountedTxOnlyOutermostCommits(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	m := NewCountedTx(conn)

	if err := m.Begin(ctx); err != nil {
		t.Fatalf("outer begin: %v", err)
	}
	if err := m.Begin(ctx); err != nil {
		t.Fatalf("inner begin: %v", err)
	}
	insertRow(t, m.Queryer())

	if err := m.Commit(); err != nil {
		t.Fatalf("inner commit: %v", err)
	}
	if m.Depth() != 1 {
		t.Fatalf("expected depth 1 after inner commit, got %d", m.Depth())
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("outer commit: %v", err)
	}

	if n := countRows(t, conn); n != 1 {
		t.Fatalf("expected committed row, got %d", n)
	}
}

func TestCountedTxInnerRollbackPoisonsOuterCommit(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	m := NewCountedTx(conn)

	if err := m.Begin(ctx); err != nil {
		t.Fatalf("outer begin: %v", err)
	}
	insertRow(t, m.Queryer())

	if err := m.Begin(ctx); err != nil {
		t.Fatalf("inner begin: %v", err)
	}
	if err := m.Rollback(); err != nil {
		t.Fatalf("inner rollback: %v", err)
	}

	// Outer level commits, but the inner rollback wins.
	if err := m.Commit(); err != nil {
		t.Fatalf("outer commit: %v", err)
	}
	if n := countRows(t, conn); n != 0 {
		t.Fatalf("expected poisoned transaction to roll back, got %d rows", n)
	}

	// The manager is reusable afterwards.
	if err := m.Begin(ctx); err != nil {
		t.Fatalf("begin after poison: %v", err)
	}
	insertRow(t, m.Queryer())
	if err := m.Commit(); err != nil {
		t.Fatalf("commit after poison: %v", err)
	}
	if n := countRows(t, conn); n != 1 {
		t.Fatalf("expected clean transaction to commit, got %d rows", n)
	}
}

func TestCountedTxCommitOutsideTransaction(t *testing.T) {
	m := NewCountedTx(openTestDB(t))
	if err := m.Commit(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
