package trackhistory

import (
	"context"
	"fmt"

	"aircraft_db/internal/db"
)

const historyColumns = `TrackHistoryID, AircraftID, IsPreserved, CreatedUtc, UpdatedUtc`

func scanHistory(row interface{ Scan(dest ...any) error }) (*TrackHistory, error) {
	var (
		h         TrackHistory
		preserved int
	)
	err := row.Scan(&h.ID, &h.AircraftID, &preserved, &h.CreatedUtc, &h.UpdatedUtc)
	if err != nil {
		return nil, err
	}
	h.IsPreserved = preserved != 0
	return &h, nil
}

// GetTrackHistoryByID fetches one history, nil when it does not exist or the
// storage is unavailable.
func (r *Repository) GetTrackHistoryByID(ctx context.Context, id int64) (*TrackHistory, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	a := r.newArgs()
	query := fmt.Sprintf(`SELECT %s FROM TrackHistory WHERE TrackHistoryID = %s`, historyColumns, a.add(id))
	h, err := scanHistory(q.QueryRowContext(ctx, query, a.args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track history %d: %w", id, err)
	}
	return h, nil
}

// GetTrackHistoriesByAircraft fetches ac's histories, oldest first. A nil
// aircraft yields no rows.
func (r *Repository) GetTrackHistoriesByAircraft(ctx context.Context, ac *Aircraft) ([]*TrackHistory, error) {
	if ac == nil {
		return nil, nil
	}
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	a := r.newArgs()
	query := fmt.Sprintf(`SELECT %s FROM TrackHistory WHERE AircraftID = %s ORDER BY CreatedUtc, TrackHistoryID`,
		historyColumns, a.add(ac.ID))
	rows, err := q.QueryContext(ctx, query, a.args...)
	if err != nil {
		return nil, fmt.Errorf("list track histories for aircraft %d: %w", ac.ID, err)
	}
	defer rows.Close()

	var out []*TrackHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveTrackHistory inserts h when its ID is zero and updates it otherwise.
// On insert a caller-supplied CreatedUtc is kept, so retention thresholds
// can be tested against backfilled histories; a zero one gets the clock.
func (r *Repository) SaveTrackHistory(ctx context.Context, h *TrackHistory) error {
	if h.AircraftID == 0 {
		return fmt.Errorf("track history needs an aircraft: %w", db.ErrValidation)
	}
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	now := r.bindTime(r.clock.Now())
	if h.ID == 0 {
		if h.CreatedUtc.IsZero() {
			h.CreatedUtc = now
		} else {
			h.CreatedUtc = r.bindTime(h.CreatedUtc)
		}
		h.UpdatedUtc = now

		a := r.newArgs()
		query := fmt.Sprintf(`
			INSERT INTO TrackHistory (AircraftID, IsPreserved, CreatedUtc, UpdatedUtc)
			VALUES (%s, %s, %s, %s)
			RETURNING TrackHistoryID`,
			a.add(h.AircraftID), a.add(boolInt(h.IsPreserved)), a.add(h.CreatedUtc), a.add(h.UpdatedUtc))
		if err := q.QueryRowContext(ctx, query, a.args...).Scan(&h.ID); err != nil {
			return fmt.Errorf("insert track history: %w", err)
		}
		return nil
	}

	h.UpdatedUtc = now
	a := r.newArgs()
	query := fmt.Sprintf(`
		UPDATE TrackHistory
		SET AircraftID = %s, IsPreserved = %s, UpdatedUtc = %s
		WHERE TrackHistoryID = %s`,
		a.add(h.AircraftID), a.add(boolInt(h.IsPreserved)), a.add(h.UpdatedUtc), a.add(h.ID))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("update track history %d: %w", h.ID, err)
	}
	return nil
}

// DeleteTrackHistory removes h and, through the schema, every state under
// it. It joins the caller's transaction when one is open. Preservation does
// not protect against an explicit delete.
func (r *Repository) DeleteTrackHistory(ctx context.Context, h *TrackHistory) error {
	if h == nil || h.ID == 0 {
		return nil
	}
	if _, ok, err := r.writer(); err != nil || !ok {
		return err
	}
	return r.inTransaction(ctx, func(q db.Queryer) error {
		return r.deleteHistory(ctx, q, h.ID)
	})
}

func (r *Repository) deleteHistory(ctx context.Context, q db.Queryer, id int64) error {
	a := r.newArgs()
	query := fmt.Sprintf(`DELETE FROM TrackHistory WHERE TrackHistoryID = %s`, a.add(id))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("delete track history %d: %w", id, err)
	}
	return nil
}
