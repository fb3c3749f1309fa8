package basestation

import (
	"context"
	"database/sql"
	"fmt"
)

// GetLocations returns every location row.
func (r *Repository) GetLocations(ctx context.Context) ([]*Location, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT LocationID, LocationName, Latitude, Longitude, Altitude FROM Locations`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Altitude); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// InsertLocation stores a new location and assigns its surrogate ID.
func (r *Repository) InsertLocation(ctx context.Context, l *Location) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := "INSERT INTO Locations (LocationName, Latitude, Longitude, Altitude) VALUES (" +
		b.arg(l.Name) + ", " + b.arg(l.Latitude) + ", " + b.arg(l.Longitude) + ", " + b.arg(l.Altitude) +
		") RETURNING LocationID"
	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&l.ID); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// UpdateLocation rewrites a stored location.
func (r *Repository) UpdateLocation(ctx context.Context, l *Location) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := "UPDATE Locations SET LocationName = " + b.arg(l.Name) +
		", Latitude = " + b.arg(l.Latitude) +
		", Longitude = " + b.arg(l.Longitude) +
		", Altitude = " + b.arg(l.Altitude) +
		" WHERE LocationID = " + b.arg(l.ID)
	if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// DeleteLocation removes one location; sessions referencing it keep running
// with their LocationID nulled.
func (r *Repository) DeleteLocation(ctx context.Context, l *Location) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	if _, err := q.ExecContext(ctx, "DELETE FROM Locations WHERE LocationID = "+b.arg(l.ID), b.args...); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

// GetSessions returns every session row.
func (r *Repository) GetSessions(ctx context.Context) ([]*Session, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT SessionID, LocationID, StartTime, EndTime FROM Sessions`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Session
	for rows.Next() {
		var (
			s        Session
			location sql.NullInt64
			endTime  sql.NullTime
		)
		if err := rows.Scan(&s.ID, &location, &s.StartTime, &endTime); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.LocationID = location.Int64
		s.StartTime = s.StartTime.UTC()
		s.EndTime = nullTime(endTime)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// InsertSession stores a new session and assigns its surrogate ID. A zero
// LocationID stores NULL.
func (r *Repository) InsertSession(ctx context.Context, s *Session) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := "INSERT INTO Sessions (LocationID, StartTime, EndTime) VALUES (" +
		b.arg(bindID(s.LocationID)) + ", " + b.arg(r.bindTime(s.StartTime)) + ", " +
		b.arg(r.bindTimePtr(s.EndTime)) + ") RETURNING SessionID"
	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateSession rewrites a stored session.
func (r *Repository) UpdateSession(ctx context.Context, s *Session) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := "UPDATE Sessions SET LocationID = " + b.arg(bindID(s.LocationID)) +
		", StartTime = " + b.arg(r.bindTime(s.StartTime)) +
		", EndTime = " + b.arg(r.bindTimePtr(s.EndTime)) +
		" WHERE SessionID = " + b.arg(s.ID)
	if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// DeleteSession removes one session and, by cascade, its flights.
func (r *Repository) DeleteSession(ctx context.Context, s *Session) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	if _, err := q.ExecContext(ctx, "DELETE FROM Sessions WHERE SessionID = "+b.arg(s.ID), b.args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetSystemEvents returns the system-event log in timestamp order.
func (r *Repository) GetSystemEvents(ctx context.Context) ([]*SystemEvent, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT SystemEventsID, TimeStamp, App, Msg FROM SystemEvents ORDER BY TimeStamp`)
	if err != nil {
		return nil, fmt.Errorf("query system events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*SystemEvent
	for rows.Next() {
		var e SystemEvent
		if err := rows.Scan(&e.ID, &e.TimeStamp, &e.App, &e.Msg); err != nil {
			return nil, fmt.Errorf("scan system event: %w", err)
		}
		e.TimeStamp = e.TimeStamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

// InsertSystemEvent stores a new system event and assigns its surrogate ID.
func (r *Repository) InsertSystemEvent(ctx context.Context, e *SystemEvent) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	if e.TimeStamp.IsZero() {
		e.TimeStamp = r.clock.Now()
	}

	b := newQueryBuilder(r.adapter)
	query := "INSERT INTO SystemEvents (TimeStamp, App, Msg) VALUES (" +
		b.arg(r.bindTime(e.TimeStamp)) + ", " + b.arg(e.App) + ", " + b.arg(e.Msg) +
		") RETURNING SystemEventsID"
	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&e.ID); err != nil {
		return fmt.Errorf("insert system event: %w", err)
	}
	return nil
}

// DeleteSystemEvent removes one system event.
func (r *Repository) DeleteSystemEvent(ctx context.Context, e *SystemEvent) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	if _, err := q.ExecContext(ctx, "DELETE FROM SystemEvents WHERE SystemEventsID = "+b.arg(e.ID), b.args...); err != nil {
		return fmt.Errorf("delete system event: %w", err)
	}
	return nil
}

// bindID is the bind value for an optional foreign key: zero stores NULL.
func bindID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
