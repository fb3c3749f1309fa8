package basestation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aircraft_db/internal/clock"
	"aircraft_db/internal/db"
	"aircraft_db/internal/standingdata"
)

// Options configures a Repository. The zero value gives a read-only
// repository on the system clock with no collaborators.
type Options struct {
	// Clock supplies every "now" timestamp the repository writes.
	Clock clock.Clock

	// CodeBlocks resolves an ICAO24 address to its allocation country for
	// newly created aircraft. Nil means no resolution.
	CodeBlocks standingdata.CodeBlocks

	// CallsignAlternates expands callsigns for the UseAlternateCallsigns
	// criteria path. Nil means no expansion.
	CallsignAlternates standingdata.CallsignAlternates

	// WritesEnabled gates every mutating operation.
	WritesEnabled bool

	Logger *slog.Logger
}

// Repository is the flight/aircraft store. One instance owns at most one
// backend connection, opened lazily on first use; operations are synchronous.
// Two independent instances over the same storage observe each other's
// committed writes.
type Repository struct {
	adapter db.Adapter
	clock   clock.Clock
	blocks  standingdata.CodeBlocks
	alts    standingdata.CallsignAlternates
	writes  bool
	log     *slog.Logger

	conn *sql.DB
	tx   *db.StrictTx

	// pending holds change notifications raised inside an open transaction,
	// delivered only after that transaction commits.
	pending []*Aircraft

	// OnAircraftUpdated is invoked once per aircraft row changed by a
	// committed upsert, with the post-update record. Pure inserts never fire
	// it, and neither does a rolled-back update.
	OnAircraftUpdated func(*Aircraft)
}

// New returns a repository over adapter.
func New(adapter db.Adapter, opts Options) *Repository {
	r := &Repository{
		adapter: adapter,
		clock:   opts.Clock,
		blocks:  opts.CodeBlocks,
		alts:    opts.CallsignAlternates,
		writes:  opts.WritesEnabled,
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
	r.pending = nil
	return err
}

// SetAdapter switches the repository to different storage. Any open
// connection is torn down; the next operation reopens lazily.
func (r *Repository) SetAdapter(adapter db.Adapter) {
	_ = r.Close()
	r.adapter = adapter
}

// WritesEnabled reports the write-support gate.
func (r *Repository) WritesEnabled() bool { return r.writes }

// SetWritesEnabled toggles write support. Toggling tears down any open
// connection.
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

// PerformInTransaction runs fn inside a single-level transaction: commit when
// fn returns true, rollback when it returns false or panics. Starting it
// while another transaction is active on this instance is an
// invalid-operation error. When the storage is unavailable fn still runs; the
// writes inside it degrade to no-ops individually.
func (r *Repository) PerformInTransaction(ctx context.Context, fn func() bool) error {
	if _, err := r.connect(false); err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			fn()
			return nil
		}
		return err
	}
	committed := false
	defer func() { r.flushNotifications(committed) }()
	wantCommit := false
	err := r.tx.Perform(ctx, func() bool {
		wantCommit = fn()
		return wantCommit
	})
	committed = wantCommit && err == nil
	return err
}

// connect opens the backend connection lazily. create governs whether missing
// storage may be brought into existence.
func (r *Repository) connect(create bool) (db.Queryer, error) {
	if r.conn == nil {
		conn, err := r.adapter.Open(create)
		if err != nil {
			return nil, err
		}
		r.conn = conn
		r.tx = db.NewStrictTx(conn)
	}
	return r.tx.Queryer(), nil
}

// reader returns the queryer for a read path. ok is false when the storage is
// unavailable and the caller must degrade to an empty result.
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

// writer returns the queryer for a write path. The write gate is checked
// first, regardless of connection state; an unavailable backend yields
// ok=false with a nil error, turning the write into a silent no-op.
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

// inTransaction runs fn inside the instance transaction, joining an ambient
// transaction if the caller already opened one.
func (r *Repository) inTransaction(ctx context.Context, fn func(q db.Queryer) error) error {
	if r.tx.InTransaction() {
		return fn(r.tx.Queryer())
	}
	committed := false
	defer func() { r.flushNotifications(committed) }()
	var inner error
	err := r.tx.Perform(ctx, func() bool {
		inner = fn(r.tx.Queryer())
		return inner == nil
	})
	committed = inner == nil && err == nil
	if inner != nil {
		return inner
	}
	return err
}

// flushNotifications empties the pending queue, invoking the change hook for
// each record when the enclosing transaction committed and dropping the queue
// otherwise.
func (r *Repository) flushNotifications(committed bool) {
	queued := r.pending
	r.pending = nil
	if !committed || r.OnAircraftUpdated == nil {
		return
	}
	for _, a := range queued {
		r.OnAircraftUpdated(a)
	}
}

// bindTime reduces t to what the backend will store and binds it in UTC,
// keeping every date round trip locale-invariant.
func (r *Repository) bindTime(t time.Time) time.Time {
	return r.adapter.TruncateDate(t.UTC())
}

// bindTimePtr is bindTime for a nullable timestamp.
func (r *Repository) bindTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return r.bindTime(*t)
}

// expandCallsign adapts the alternates resolver for the query builder.
func (r *Repository) expandCallsign(callsign string) []string {
	if r.alts == nil {
		return nil
	}
	return r.alts.GetAllAlternateCallsigns(callsign)
}
