package trackhistory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"aircraft_db/internal/db"
)

const aircraftColumns = `AircraftID, Icao, Registration, CountryID, OperatorID, AircraftTypeID, IsMilitary, CreatedUtc, UpdatedUtc`

func scanAircraft(row interface{ Scan(dest ...any) error }) (*Aircraft, error) {
	var (
		a          Aircraft
		reg        sql.NullString
		country    sql.NullInt64
		operator   sql.NullInt64
		typ        sql.NullInt64
		isMilitary int
	)
	err := row.Scan(&a.ID, &a.Icao, &reg, &country, &operator, &typ, &isMilitary, &a.CreatedUtc, &a.UpdatedUtc)
	if err != nil {
		return nil, err
	}
	a.Registration = nullStr(reg)
	a.CountryID = nullInt64(country)
	a.OperatorID = nullInt64(operator)
	a.AircraftTypeID = nullInt64(typ)
	a.IsMilitary = isMilitary != 0
	return &a, nil
}

// GetAircraftByIcao fetches the aircraft with the given ICAO hex code,
// matched case-insensitively. Missing row, or unavailable storage, comes
// back as nil with no error.
func (r *Repository) GetAircraftByIcao(ctx context.Context, icao string) (*Aircraft, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	return r.getAircraftByIcao(ctx, q, icao)
}

func (r *Repository) getAircraftByIcao(ctx context.Context, q db.Queryer, icao string) (*Aircraft, error) {
	a := r.newArgs()
	query := fmt.Sprintf(`SELECT %s FROM Aircraft WHERE UPPER(Icao) = %s`,
		aircraftColumns, a.add(strings.ToUpper(icao)))
	ac, err := scanAircraft(q.QueryRowContext(ctx, query, a.args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aircraft %q: %w", icao, err)
	}
	return ac, nil
}

// GetOrCreateAircraftByIcao fetches the aircraft for icao, creating a bare
// row when none exists. The lookup and insert run in one transaction.
// created reports whether the row was inserted by this call.
func (r *Repository) GetOrCreateAircraftByIcao(ctx context.Context, icao string) (ac *Aircraft, created bool, err error) {
	if _, ok, werr := r.writer(); werr != nil || !ok {
		return nil, false, werr
	}

	err = r.inTransaction(ctx, func(q db.Queryer) error {
		ac, err = r.getAircraftByIcao(ctx, q, icao)
		if err != nil || ac != nil {
			return err
		}
		ac = &Aircraft{Icao: icao}
		created = true
		return r.insertAircraft(ctx, q, ac)
	})
	if err != nil {
		return nil, false, err
	}
	return ac, created, nil
}

// SaveAircraft inserts ac when its ID is zero and updates it otherwise.
func (r *Repository) SaveAircraft(ctx context.Context, ac *Aircraft) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	if ac.ID == 0 {
		return r.insertAircraft(ctx, q, ac)
	}
	return r.updateAircraft(ctx, q, ac)
}

func (r *Repository) insertAircraft(ctx context.Context, q db.Queryer, ac *Aircraft) error {
	now := r.bindTime(r.clock.Now())
	ac.CreatedUtc = now
	ac.UpdatedUtc = now

	a := r.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO Aircraft (Icao, Registration, CountryID, OperatorID, AircraftTypeID, IsMilitary, CreatedUtc, UpdatedUtc)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		RETURNING AircraftID`,
		a.add(ac.Icao), a.add(bindStr(ac.Registration)), a.add(bindInt64(ac.CountryID)),
		a.add(bindInt64(ac.OperatorID)), a.add(bindInt64(ac.AircraftTypeID)),
		a.add(boolInt(ac.IsMilitary)), a.add(now), a.add(now))
	if err := q.QueryRowContext(ctx, query, a.args...).Scan(&ac.ID); err != nil {
		return fmt.Errorf("insert aircraft %q: %w", ac.Icao, err)
	}
	return nil
}

func (r *Repository) updateAircraft(ctx context.Context, q db.Queryer, ac *Aircraft) error {
	ac.UpdatedUtc = r.bindTime(r.clock.Now())

	a := r.newArgs()
	query := fmt.Sprintf(`
		UPDATE Aircraft
		SET Icao = %s, Registration = %s, CountryID = %s, OperatorID = %s,
		    AircraftTypeID = %s, IsMilitary = %s, UpdatedUtc = %s
		WHERE AircraftID = %s`,
		a.add(ac.Icao), a.add(bindStr(ac.Registration)), a.add(bindInt64(ac.CountryID)),
		a.add(bindInt64(ac.OperatorID)), a.add(bindInt64(ac.AircraftTypeID)),
		a.add(boolInt(ac.IsMilitary)), a.add(ac.UpdatedUtc), a.add(ac.ID))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("update aircraft %d: %w", ac.ID, err)
	}
	return nil
}

// DeleteAircraft removes ac; its histories and their states go with it.
// A nil aircraft, or one never saved, is a no-op.
func (r *Repository) DeleteAircraft(ctx context.Context, ac *Aircraft) error {
	if ac == nil || ac.ID == 0 {
		return nil
	}
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	a := r.newArgs()
	query := fmt.Sprintf(`DELETE FROM Aircraft WHERE AircraftID = %s`, a.add(ac.ID))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("delete aircraft %d: %w", ac.ID, err)
	}
	return nil
}
