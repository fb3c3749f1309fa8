package basestation

import (
	"context"
	"fmt"

	"aircraft_db/internal/db"
)

const flightsFrom = " FROM Flights f JOIN Aircraft a ON a.AircraftID = f.AircraftID"

// GetFlights returns the flights matching criteria, sorted by up to two of
// the known sort fields and paginated by zero-based inclusive row bounds
// (negative bounds mean unlimited).
func (r *Repository) GetFlights(ctx context.Context, criteria *Criteria, fromRow, toRow int, sorts ...SortBy) ([]*Flight, error) {
	if criteria == nil {
		return nil, fmt.Errorf("criteria must not be nil: %w", db.ErrValidation)
	}
	return r.queryFlights(ctx, criteria, nil, fromRow, toRow, sorts)
}

// GetFlightsForAircraft returns the flights of one aircraft matching
// criteria. A nil aircraft yields an empty result, not an error.
func (r *Repository) GetFlightsForAircraft(ctx context.Context, aircraft *Aircraft, criteria *Criteria, fromRow, toRow int, sorts ...SortBy) ([]*Flight, error) {
	if criteria == nil {
		return nil, fmt.Errorf("criteria must not be nil: %w", db.ErrValidation)
	}
	if aircraft == nil {
		return nil, nil
	}
	return r.queryFlights(ctx, criteria, aircraft, fromRow, toRow, sorts)
}

// GetCountOfFlights returns how many flights match criteria.
func (r *Repository) GetCountOfFlights(ctx context.Context, criteria *Criteria) (int, error) {
	if criteria == nil {
		return 0, fmt.Errorf("criteria must not be nil: %w", db.ErrValidation)
	}
	return r.countFlights(ctx, criteria, nil)
}

// GetCountOfFlightsForAircraft returns how many flights of one aircraft match
// criteria. A nil aircraft counts zero rows.
func (r *Repository) GetCountOfFlightsForAircraft(ctx context.Context, aircraft *Aircraft, criteria *Criteria) (int, error) {
	if criteria == nil {
		return 0, fmt.Errorf("criteria must not be nil: %w", db.ErrValidation)
	}
	if aircraft == nil {
		return 0, nil
	}
	return r.countFlights(ctx, criteria, aircraft)
}

func (r *Repository) queryFlights(ctx context.Context, criteria *Criteria, aircraft *Aircraft, fromRow, toRow int, sorts []SortBy) ([]*Flight, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}

	b := newQueryBuilder(r.adapter)
	if aircraft != nil {
		b.addWhere("f.AircraftID = " + b.arg(aircraft.ID))
	}
	b.applyCriteria(criteria, r.expandCallsign)

	query := "SELECT " + flightColumns + flightsFrom + b.whereSQL() +
		orderBySQL(sorts) + limitSQL(r.adapter.Kind(), fromRow, toRow)

	rows, err := q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var flights []*Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *Repository) countFlights(ctx context.Context, criteria *Criteria, aircraft *Aircraft) (int, error) {
	q, ok := r.reader()
	if !ok {
		return 0, nil
	}

	b := newQueryBuilder(r.adapter)
	if aircraft != nil {
		b.addWhere("f.AircraftID = " + b.arg(aircraft.ID))
	}
	b.applyCriteria(criteria, r.expandCallsign)

	var count int
	query := "SELECT COUNT(*)" + flightsFrom + b.whereSQL()
	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count flights: %w", err)
	}
	return count, nil
}

// GetFlightByID returns one flight with its aircraft, nil when absent.
func (r *Repository) GetFlightByID(ctx context.Context, id int64) (*Flight, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}

	b := newQueryBuilder(r.adapter)
	query := "SELECT " + flightColumns + flightsFrom + " WHERE f.FlightID = " + b.arg(id)
	f, err := scanFlight(q.QueryRowContext(ctx, query, b.args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get flight: %w", err)
	}
	return f, nil
}

// InsertFlight stores a new flight and assigns its surrogate ID.
func (r *Repository) InsertFlight(ctx context.Context, f *Flight) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := `INSERT INTO Flights (SessionID, AircraftID, StartTime, EndTime, Callsign,
		FirstAltitude, FirstGroundSpeed, FirstLat, FirstLon, FirstTrack, FirstVerticalRate, FirstSquawk, FirstIsOnGround,
		LastAltitude, LastGroundSpeed, LastLat, LastLon, LastTrack, LastVerticalRate, LastSquawk, LastIsOnGround,
		HadAlert, HadEmergency, HadSpi,
		NumPosMsgRec, NumADSBMsgRec, NumModeSMsgRec, NumIDMsgRec, NumAirPosMsgRec) VALUES (` +
		b.arg(f.SessionID) + ", " + b.arg(f.AircraftID) + ", " + b.arg(r.bindTime(f.StartTime)) + ", " +
		b.arg(r.bindTimePtr(f.EndTime)) + ", " + b.arg(bindStr(f.Callsign)) + ", " +
		b.arg(bindInt(f.FirstAltitude)) + ", " + b.arg(bindFloat(f.FirstGroundSpeed)) + ", " +
		b.arg(bindFloat(f.FirstLat)) + ", " + b.arg(bindFloat(f.FirstLon)) + ", " +
		b.arg(bindFloat(f.FirstTrack)) + ", " + b.arg(bindInt(f.FirstVerticalRate)) + ", " +
		b.arg(bindInt(f.FirstSquawk)) + ", " + b.arg(boolInt(f.FirstIsOnGround)) + ", " +
		b.arg(bindInt(f.LastAltitude)) + ", " + b.arg(bindFloat(f.LastGroundSpeed)) + ", " +
		b.arg(bindFloat(f.LastLat)) + ", " + b.arg(bindFloat(f.LastLon)) + ", " +
		b.arg(bindFloat(f.LastTrack)) + ", " + b.arg(bindInt(f.LastVerticalRate)) + ", " +
		b.arg(bindInt(f.LastSquawk)) + ", " + b.arg(boolInt(f.LastIsOnGround)) + ", " +
		b.arg(boolInt(f.HadAlert)) + ", " + b.arg(boolInt(f.HadEmergency)) + ", " + b.arg(boolInt(f.HadSpi)) + ", " +
		b.arg(bindInt(f.NumPosMsgRec)) + ", " + b.arg(bindInt(f.NumADSBMsgRec)) + ", " +
		b.arg(bindInt(f.NumModeSMsgRec)) + ", " + b.arg(bindInt(f.NumIDMsgRec)) + ", " +
		b.arg(bindInt(f.NumAirPosMsgRec)) +
		") RETURNING FlightID"

	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&f.ID); err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}
	return nil
}

// UpdateFlight rewrites a stored flight's mutable columns.
func (r *Repository) UpdateFlight(ctx context.Context, f *Flight) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	query := "UPDATE Flights SET SessionID = " + b.arg(f.SessionID) +
		", AircraftID = " + b.arg(f.AircraftID) +
		", StartTime = " + b.arg(r.bindTime(f.StartTime)) +
		", EndTime = " + b.arg(r.bindTimePtr(f.EndTime)) +
		", Callsign = " + b.arg(bindStr(f.Callsign)) +
		", FirstAltitude = " + b.arg(bindInt(f.FirstAltitude)) +
		", LastAltitude = " + b.arg(bindInt(f.LastAltitude)) +
		", HadAlert = " + b.arg(boolInt(f.HadAlert)) +
		", HadEmergency = " + b.arg(boolInt(f.HadEmergency)) +
		", HadSpi = " + b.arg(boolInt(f.HadSpi)) +
		" WHERE FlightID = " + b.arg(f.ID)

	if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update flight: %w", err)
	}
	return nil
}

// DeleteFlight removes one flight.
func (r *Repository) DeleteFlight(ctx context.Context, f *Flight) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	b := newQueryBuilder(r.adapter)
	if _, err := q.ExecContext(ctx, "DELETE FROM Flights WHERE FlightID = "+b.arg(f.ID), b.args...); err != nil {
		return fmt.Errorf("delete flight: %w", err)
	}
	return nil
}
