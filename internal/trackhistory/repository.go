package trackhistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aircraft_db/internal/clock"
	"aircraft_db/internal/db"
)

// ArchiveSink receives the states of a history about to be hard-deleted by
// retention, before the delete happens. Implementations batch them into cold
// storage.
type ArchiveSink interface {
	ArchiveStates(ctx context.Context, history *TrackHistory, states []*TrackHistoryState) error
}

// Options configures a Repository.
type Options struct {
	// Clock supplies every "now" timestamp the repository writes.
	Clock clock.Clock

	// WritesEnabled gates every mutating operation.
	WritesEnabled bool

	// Archive, when set, is offered the states of every history the expiry
	// pass deletes.
	Archive ArchiveSink

	Logger *slog.Logger
}

// Repository is the track-history store. One instance owns at most one
// backend connection, opened lazily. Transactions nest by counting: only the
// outermost Begin/Commit touches storage, and a Rollback at any depth forces
// the whole transaction back.
type Repository struct {
	adapter db.Adapter
	clock   clock.Clock
	writes  bool
	archive ArchiveSink
	log     *slog.Logger

	conn *sql.DB
	tx   *db.CountedTx
}

// New returns a repository over adapter.
func New(adapter db.Adapter, opts Options) *Repository {
	r := &Repository{
		adapter: adapter,
		clock:   opts.Clock,
		writes:  opts.WritesEnabled,
		archive: opts.Archive,
		log:     opts.Logger,
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Close tears down the open connection, if any.
func (r *Repository) Close() error {
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	r.tx = nil
	return err
}

// SetAdapter switches to different storage, tearing down any open connection.
func (r *Repository) SetAdapter(adapter db.Adapter) {
	_ = r.Close()
	r.adapter = adapter
}

// WritesEnabled reports the write-support gate.
func (r *Repository) WritesEnabled() bool { return r.writes }

// SetWritesEnabled toggles write support, tearing down any open connection.
func (r *Repository) SetWritesEnabled(enabled bool) {
	if enabled != r.writes {
		_ = r.Close()
		r.writes = enabled
	}
}

// MaxParameters reports the backend's bound-parameter ceiling, -1 while no
// connection is open.
func (r *Repository) MaxParameters() int {
	if r.conn == nil {
		return -1
	}
	return r.adapter.MaxParameters()
}

// Initialize opens the storage, creating it if missing, and brings the
// schema up.
func (r *Repository) Initialize(ctx context.Context) error {
	q, err := r.connect(true)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, schemaFor(r.adapter.Kind())); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// BeginTransaction enters a transaction level.
func (r *Repository) BeginTransaction(ctx context.Context) error {
	if _, err := r.connect(false); err != nil {
		return err
	}
	return r.tx.Begin(ctx)
}

// CommitTransaction leaves a transaction level; the storage transaction
// commits when the outermost level ends, unless a Rollback poisoned it.
func (r *Repository) CommitTransaction() error {
	if r.tx == nil {
		return fmt.Errorf("commit outside transaction: %w", db.ErrValidation)
	}
	return r.tx.Commit()
}

// RollbackTransaction leaves a transaction level and forces the whole outer
// transaction to roll back.
func (r *Repository) RollbackTransaction() error {
	if r.tx == nil {
		return fmt.Errorf("rollback outside transaction: %w", db.ErrValidation)
	}
	return r.tx.Rollback()
}

func (r *Repository) connect(create bool) (db.Queryer, error) {
	if r.conn == nil {
		conn, err := r.adapter.Open(create)
		if err != nil {
			return nil, err
		}
		r.conn = conn
		r.tx = db.NewCountedTx(conn)
	}
	return r.tx.Queryer(), nil
}

// reader returns the queryer for a read path; ok is false when the storage is
// unavailable and the caller degrades to an empty result.
func (r *Repository) reader() (q db.Queryer, ok bool) {
	q, err := r.connect(false)
	if err != nil {
		if !errors.Is(err, db.ErrUnavailable) {
			r.log.Warn("read connection failed", "backend", r.adapter.Kind().String(), "err", err)
		}
		return nil, false
	}
	return q, true
}

// writer returns the queryer for a write path. The gate is checked first; an
// unreachable backend makes the write a silent no-op (ok false, nil error).
func (r *Repository) writer() (q db.Queryer, ok bool, err error) {
	if !r.writes {
		return nil, false, db.ErrWriteDisabled
	}
	q, cerr := r.connect(false)
	if cerr != nil {
		if errors.Is(cerr, db.ErrUnavailable) {
			return nil, false, nil
		}
		return nil, false, cerr
	}
	return q, true, nil
}

// inTransaction runs fn inside one counted transaction level, joining an
// ambient transaction if the caller holds one open.
func (r *Repository) inTransaction(ctx context.Context, fn func(q db.Queryer) error) error {
	if err := r.tx.Begin(ctx); err != nil {
		return err
	}
	if err := fn(r.tx.Queryer()); err != nil {
		_ = r.tx.Rollback()
		return err
	}
	return r.tx.Commit()
}

// bindTime reduces t to what the backend will store, in UTC.
func (r *Repository) bindTime(t time.Time) time.Time {
	return r.adapter.TruncateDate(t.UTC())
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

func bindStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func bindInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func bindInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func bindFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func bindBool(p *bool) any {
	if p == nil {
		return nil
	}
	if *p {
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
