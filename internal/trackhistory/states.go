package trackhistory

import (
	"context"
	"database/sql"
	"fmt"

	"aircraft_db/internal/db"
)

const stateColumns = `TrackHistoryStateID, TrackHistoryID, TimestampUtc, SequenceNumber, ReceiverID,
	SignalLevel, Latitude, Longitude, IsMlat, Altitude, TargetAltitude, AirPressureInHg,
	GroundSpeed, Track, TrackIsHeading, TargetTrack, VerticalRate, Squawk, IdentActive,
	Callsign, IsCallsignSuspect, CreatedUtc, UpdatedUtc`

func scanState(row interface{ Scan(dest ...any) error }) (*TrackHistoryState, error) {
	var (
		s          TrackHistoryState
		receiver   sql.NullInt64
		signal     sql.NullInt64
		lat        sql.NullFloat64
		lon        sql.NullFloat64
		mlat       sql.NullInt64
		alt        sql.NullInt64
		targetAlt  sql.NullInt64
		pressure   sql.NullFloat64
		speed      sql.NullFloat64
		track      sql.NullFloat64
		heading    sql.NullInt64
		targetTrk  sql.NullFloat64
		vrate      sql.NullInt64
		squawk     sql.NullInt64
		ident      sql.NullInt64
		callsign   sql.NullString
		csSuspect  sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.TrackHistoryID, &s.TimestampUtc, &s.SequenceNumber, &receiver,
		&signal, &lat, &lon, &mlat, &alt, &targetAlt, &pressure,
		&speed, &track, &heading, &targetTrk, &vrate, &squawk, &ident,
		&callsign, &csSuspect, &s.CreatedUtc, &s.UpdatedUtc)
	if err != nil {
		return nil, err
	}
	s.ReceiverID = nullInt64(receiver)
	s.SignalLevel = nullInt(signal)
	s.Latitude = nullFloat(lat)
	s.Longitude = nullFloat(lon)
	s.IsMlat = nullBool(mlat)
	s.Altitude = nullInt(alt)
	s.TargetAltitude = nullInt(targetAlt)
	s.AirPressureInHg = nullFloat(pressure)
	s.GroundSpeed = nullFloat(speed)
	s.Track = nullFloat(track)
	s.TrackIsHeading = nullBool(heading)
	s.TargetTrack = nullFloat(targetTrk)
	s.VerticalRate = nullInt(vrate)
	s.Squawk = nullInt(squawk)
	s.IdentActive = nullBool(ident)
	s.Callsign = nullStr(callsign)
	s.IsCallsignSuspect = nullBool(csSuspect)
	return &s, nil
}

func validateState(s *TrackHistoryState) error {
	if s.TrackHistoryID == 0 {
		return fmt.Errorf("state needs a track history: %w", db.ErrValidation)
	}
	if s.SequenceNumber == 0 {
		return fmt.Errorf("state needs a sequence number: %w", db.ErrValidation)
	}
	if s.TimestampUtc.IsZero() {
		return fmt.Errorf("state needs a timestamp: %w", db.ErrValidation)
	}
	return nil
}

// SaveState inserts s when its ID is zero and updates it in place otherwise.
// Re-saving with a different TrackHistoryID moves the state between
// histories.
func (r *Repository) SaveState(ctx context.Context, s *TrackHistoryState) error {
	if err := validateState(s); err != nil {
		return err
	}
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	if s.ID == 0 {
		return r.insertState(ctx, q, s)
	}
	return r.updateState(ctx, q, s)
}

// SaveStates saves a batch in one transaction. Validation runs up front and
// a single bad state fails the whole batch before anything is written.
func (r *Repository) SaveStates(ctx context.Context, states []*TrackHistoryState) error {
	for _, s := range states {
		if err := validateState(s); err != nil {
			return err
		}
	}
	if _, ok, err := r.writer(); err != nil || !ok {
		return err
	}
	return r.inTransaction(ctx, func(q db.Queryer) error {
		for _, s := range states {
			var err error
			if s.ID == 0 {
				err = r.insertState(ctx, q, s)
			} else {
				err = r.updateState(ctx, q, s)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) insertState(ctx context.Context, q db.Queryer, s *TrackHistoryState) error {
	now := r.bindTime(r.clock.Now())
	s.TimestampUtc = r.bindTime(s.TimestampUtc)
	s.CreatedUtc = now
	s.UpdatedUtc = now

	a := r.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO TrackHistoryState (TrackHistoryID, TimestampUtc, SequenceNumber, ReceiverID,
			SignalLevel, Latitude, Longitude, IsMlat, Altitude, TargetAltitude, AirPressureInHg,
			GroundSpeed, Track, TrackIsHeading, TargetTrack, VerticalRate, Squawk, IdentActive,
			Callsign, IsCallsignSuspect, CreatedUtc, UpdatedUtc)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		RETURNING TrackHistoryStateID`,
		a.add(s.TrackHistoryID), a.add(s.TimestampUtc), a.add(s.SequenceNumber), a.add(bindInt64(s.ReceiverID)),
		a.add(bindInt(s.SignalLevel)), a.add(bindFloat(s.Latitude)), a.add(bindFloat(s.Longitude)),
		a.add(bindBool(s.IsMlat)), a.add(bindInt(s.Altitude)), a.add(bindInt(s.TargetAltitude)),
		a.add(bindFloat(s.AirPressureInHg)), a.add(bindFloat(s.GroundSpeed)), a.add(bindFloat(s.Track)),
		a.add(bindBool(s.TrackIsHeading)), a.add(bindFloat(s.TargetTrack)), a.add(bindInt(s.VerticalRate)),
		a.add(bindInt(s.Squawk)), a.add(bindBool(s.IdentActive)), a.add(bindStr(s.Callsign)),
		a.add(bindBool(s.IsCallsignSuspect)), a.add(now), a.add(now))
	if err := q.QueryRowContext(ctx, query, a.args...).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert state seq %d for history %d: %w", s.SequenceNumber, s.TrackHistoryID, err)
	}
	return nil
}

func (r *Repository) updateState(ctx context.Context, q db.Queryer, s *TrackHistoryState) error {
	s.TimestampUtc = r.bindTime(s.TimestampUtc)
	s.UpdatedUtc = r.bindTime(r.clock.Now())

	a := r.newArgs()
	query := fmt.Sprintf(`
		UPDATE TrackHistoryState
		SET TrackHistoryID = %s, TimestampUtc = %s, SequenceNumber = %s, ReceiverID = %s,
		    SignalLevel = %s, Latitude = %s, Longitude = %s, IsMlat = %s, Altitude = %s,
		    TargetAltitude = %s, AirPressureInHg = %s, GroundSpeed = %s, Track = %s,
		    TrackIsHeading = %s, TargetTrack = %s, VerticalRate = %s, Squawk = %s,
		    IdentActive = %s, Callsign = %s, IsCallsignSuspect = %s, UpdatedUtc = %s
		WHERE TrackHistoryStateID = %s`,
		a.add(s.TrackHistoryID), a.add(s.TimestampUtc), a.add(s.SequenceNumber), a.add(bindInt64(s.ReceiverID)),
		a.add(bindInt(s.SignalLevel)), a.add(bindFloat(s.Latitude)), a.add(bindFloat(s.Longitude)),
		a.add(bindBool(s.IsMlat)), a.add(bindInt(s.Altitude)), a.add(bindInt(s.TargetAltitude)),
		a.add(bindFloat(s.AirPressureInHg)), a.add(bindFloat(s.GroundSpeed)), a.add(bindFloat(s.Track)),
		a.add(bindBool(s.TrackIsHeading)), a.add(bindFloat(s.TargetTrack)), a.add(bindInt(s.VerticalRate)),
		a.add(bindInt(s.Squawk)), a.add(bindBool(s.IdentActive)), a.add(bindStr(s.Callsign)),
		a.add(bindBool(s.IsCallsignSuspect)), a.add(s.UpdatedUtc), a.add(s.ID))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("update state %d: %w", s.ID, err)
	}
	return nil
}

// GetStateByID fetches one state, nil when it does not exist or the storage
// is unavailable.
func (r *Repository) GetStateByID(ctx context.Context, id int64) (*TrackHistoryState, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	a := r.newArgs()
	query := fmt.Sprintf(`SELECT %s FROM TrackHistoryState WHERE TrackHistoryStateID = %s`, stateColumns, a.add(id))
	s, err := scanState(q.QueryRowContext(ctx, query, a.args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %d: %w", id, err)
	}
	return s, nil
}

// GetStatesByTrackHistory fetches h's states in sequence-number order, the
// only authoritative ordering. A nil history yields no rows.
func (r *Repository) GetStatesByTrackHistory(ctx context.Context, h *TrackHistory) ([]*TrackHistoryState, error) {
	if h == nil {
		return nil, nil
	}
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	return r.statesByHistory(ctx, q, h.ID)
}

func (r *Repository) statesByHistory(ctx context.Context, q db.Queryer, historyID int64) ([]*TrackHistoryState, error) {
	a := r.newArgs()
	query := fmt.Sprintf(`SELECT %s FROM TrackHistoryState WHERE TrackHistoryID = %s ORDER BY SequenceNumber`,
		stateColumns, a.add(historyID))
	rows, err := q.QueryContext(ctx, query, a.args...)
	if err != nil {
		return nil, fmt.Errorf("list states for history %d: %w", historyID, err)
	}
	defer rows.Close()

	var out []*TrackHistoryState
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
