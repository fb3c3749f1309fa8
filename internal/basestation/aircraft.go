package basestation

import (
	"context"
	"fmt"
	"strings"

	"aircraft_db/internal/db"
)

// unknownCountry is the code-block sentinel for an allocation without a
// usable country; it resolves to a NULL ModeSCountry.
const unknownCountry = "Unknown Country"

// GetAircraftByID returns one aircraft, nil when absent.
func (r *Repository) GetAircraftByID(ctx context.Context, id int64) (*Aircraft, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	b := newQueryBuilder(r.adapter)
	query := "SELECT " + aircraftColumns + " FROM Aircraft a WHERE a.AircraftID = " + b.arg(id)
	return r.selectAircraft(ctx, q, query, b.args)
}

// GetAircraftByCode returns the aircraft with the given ICAO24 code, matched
// case-insensitively, nil when absent.
func (r *Repository) GetAircraftByCode(ctx context.Context, code string) (*Aircraft, error) {
	q, ok := r.reader()
	if !ok {
		return nil, nil
	}
	return r.aircraftByCode(ctx, q, code)
}

func (r *Repository) aircraftByCode(ctx context.Context, q db.Queryer, code string) (*Aircraft, error) {
	b := newQueryBuilder(r.adapter)
	query := "SELECT " + aircraftColumns + " FROM Aircraft a WHERE UPPER(a.ModeS) = " +
		b.arg(strings.ToUpper(code))
	return r.selectAircraft(ctx, q, query, b.args)
}

func (r *Repository) selectAircraft(ctx context.Context, q db.Queryer, query string, args []any) (*Aircraft, error) {
	a, err := scanAircraft(q.QueryRowContext(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aircraft: %w", err)
	}
	return a, nil
}

// GetManyAircraftByCode returns the stored aircraft for the requested codes,
// keyed by uppercased code. Nil or empty input yields an empty map. Requests
// larger than the backend's parameter ceiling are split transparently into
// multiple lookups and merged.
func (r *Repository) GetManyAircraftByCode(ctx context.Context, codes []string) (map[string]*Aircraft, error) {
	out := make(map[string]*Aircraft)
	if len(codes) == 0 {
		return out, nil
	}
	q, ok := r.reader()
	if !ok {
		return out, nil
	}

	for _, chunk := range db.ChunkStrings(dedupeUpper(codes), r.adapter.MaxParameters()) {
		b := newQueryBuilder(r.adapter)
		query := "SELECT " + aircraftColumns + " FROM Aircraft a WHERE UPPER(a.ModeS) IN (" +
			b.argList(chunk) + ")"

		rows, err := q.QueryContext(ctx, query, b.args...)
		if err != nil {
			return nil, fmt.Errorf("get many aircraft: %w", err)
		}
		for rows.Next() {
			a, err := scanAircraft(rows)
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan aircraft: %w", err)
			}
			out[strings.ToUpper(a.ModeS)] = a
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}
	return out, nil
}

// GetManyAircraftAndFlightsCountByCode is GetManyAircraftByCode with each
// aircraft's flight count attached.
func (r *Repository) GetManyAircraftAndFlightsCountByCode(ctx context.Context, codes []string) (map[string]*AircraftAndFlightsCount, error) {
	out := make(map[string]*AircraftAndFlightsCount)
	if len(codes) == 0 {
		return out, nil
	}
	q, ok := r.reader()
	if !ok {
		return out, nil
	}

	for _, chunk := range db.ChunkStrings(dedupeUpper(codes), r.adapter.MaxParameters()) {
		b := newQueryBuilder(r.adapter)
		query := "SELECT " + aircraftColumns +
			", (SELECT COUNT(*) FROM Flights f WHERE f.AircraftID = a.AircraftID)" +
			" FROM Aircraft a WHERE UPPER(a.ModeS) IN (" + b.argList(chunk) + ")"

		rows, err := q.QueryContext(ctx, query, b.args...)
		if err != nil {
			return nil, fmt.Errorf("get many aircraft with counts: %w", err)
		}
		for rows.Next() {
			rec, err := scanAircraftAndCount(rows)
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan aircraft with count: %w", err)
			}
			out[strings.ToUpper(rec.Aircraft.ModeS)] = rec
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}
	return out, nil
}

// GetOrInsertAircraftByCode returns the aircraft with the given code,
// creating a near-empty row when none exists. created reports which. The
// new row's ModeSCountry comes from the code-block lookup; no block, an
// empty country and the "Unknown Country" sentinel all store NULL.
func (r *Repository) GetOrInsertAircraftByCode(ctx context.Context, code string) (aircraft *Aircraft, created bool, err error) {
	_, ok, err := r.writer()
	if err != nil || !ok {
		return nil, false, err
	}

	err = r.inTransaction(ctx, func(q db.Queryer) error {
		existing, err := r.aircraftByCode(ctx, q, code)
		if err != nil {
			return err
		}
		if existing != nil {
			aircraft = existing
			return nil
		}

		now := r.clock.Now()
		a := &Aircraft{
			ModeS:        strings.ToUpper(code),
			ModeSCountry: r.resolveCountry(code),
			FirstCreated: now,
			LastModified: now,
		}
		if err := r.insertAircraft(ctx, q, a); err != nil {
			return err
		}
		aircraft = a
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return aircraft, created, nil
}

// resolveCountry maps an ICAO24 code to the country stored on a new row.
func (r *Repository) resolveCountry(code string) *string {
	if r.blocks == nil {
		return nil
	}
	cb := r.blocks.FindCodeBlock(code)
	if cb == nil || cb.Country == "" || cb.Country == unknownCountry {
		return nil
	}
	c := cb.Country
	return &c
}

// RecordMissingAircraft records that code was seen on the air but never
// looked up successfully.
func (r *Repository) RecordMissingAircraft(ctx context.Context, code string) error {
	return r.RecordManyMissingAircraft(ctx, []string{code})
}

// RecordManyMissingAircraft is the batch form of RecordMissingAircraft. The
// first sighting creates a marker row; later sightings only advance
// LastModified, never touching identifying data the row may have gained.
func (r *Repository) RecordManyMissingAircraft(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	_, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}

	now := r.clock.Now()
	return r.inTransaction(ctx, func(q db.Queryer) error {
		for _, code := range dedupeUpper(codes) {
			existing, err := r.aircraftByCode(ctx, q, code)
			if err != nil {
				return err
			}
			if existing == nil {
				a := &Aircraft{
					ModeS:        code,
					UserString1:  strptr(missingMarker),
					FirstCreated: now,
					LastModified: now,
				}
				if err := r.insertAircraft(ctx, q, a); err != nil {
					return err
				}
				continue
			}

			b := newQueryBuilder(r.adapter)
			query := "UPDATE Aircraft SET LastModified = " + b.arg(r.bindTime(now)) +
				" WHERE AircraftID = " + b.arg(existing.ID)
			if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
				return fmt.Errorf("touch missing aircraft: %w", err)
			}
		}
		return nil
	})
}

// UpsertAircraftLookup applies one lookup result, inserting or updating by
// code. With onlyUpdateIfMarkedAsMissing, rows that are not missing per the
// sentinel rule are left untouched. Returns the stored record.
func (r *Repository) UpsertAircraftLookup(ctx context.Context, lookup *AircraftLookup, onlyUpdateIfMarkedAsMissing bool) (*Aircraft, error) {
	if lookup == nil {
		return nil, fmt.Errorf("lookup must not be nil: %w", db.ErrValidation)
	}
	rows, err := r.UpsertManyAircraftLookup(ctx, []*AircraftLookup{lookup}, onlyUpdateIfMarkedAsMissing)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// UpsertManyAircraftLookup applies many lookup results in one round trip,
// with the same per-row rule as UpsertAircraftLookup. Inserts never raise the
// change notification; every updated row raises it exactly once with the
// post-update record.
func (r *Repository) UpsertManyAircraftLookup(ctx context.Context, lookups []*AircraftLookup, onlyUpdateIfMarkedAsMissing bool) ([]*Aircraft, error) {
	if len(lookups) == 0 {
		return nil, nil
	}
	_, ok, err := r.writer()
	if err != nil || !ok {
		return nil, err
	}

	var out []*Aircraft
	err = r.inTransaction(ctx, func(q db.Queryer) error {
		now := r.clock.Now()
		for _, lookup := range lookups {
			existing, err := r.aircraftByCode(ctx, q, lookup.ModeS)
			if err != nil {
				return err
			}

			if existing == nil {
				a := &Aircraft{FirstCreated: now, LastModified: now}
				lookup.ApplyTo(a)
				a.ModeS = strings.ToUpper(lookup.ModeS)
				if err := r.insertAircraft(ctx, q, a); err != nil {
					return err
				}
				out = append(out, a)
				continue
			}

			if onlyUpdateIfMarkedAsMissing && !existing.IsMissing() {
				out = append(out, existing)
				continue
			}

			updated := *existing
			lookup.ApplyTo(&updated)
			updated.ModeS = existing.ModeS
			updated.LastModified = now
			if err := r.updateAircraft(ctx, q, &updated); err != nil {
				return err
			}
			out = append(out, &updated)
			r.notifyUpdated(&updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertManyAircraft applies full aircraft records in one round trip, keyed
// by code: existing rows are rewritten (and notified), absent rows inserted
// silently. Returns the stored records.
func (r *Repository) UpsertManyAircraft(ctx context.Context, aircraft []*Aircraft) ([]*Aircraft, error) {
	if len(aircraft) == 0 {
		return nil, nil
	}
	_, ok, err := r.writer()
	if err != nil || !ok {
		return nil, err
	}

	var out []*Aircraft
	err = r.inTransaction(ctx, func(q db.Queryer) error {
		now := r.clock.Now()
		for _, rec := range aircraft {
			existing, err := r.aircraftByCode(ctx, q, rec.ModeS)
			if err != nil {
				return err
			}

			if existing == nil {
				ins := *rec
				ins.FirstCreated = now
				ins.LastModified = now
				if err := r.insertAircraft(ctx, q, &ins); err != nil {
					return err
				}
				out = append(out, &ins)
				continue
			}

			updated := *rec
			updated.ID = existing.ID
			updated.FirstCreated = existing.FirstCreated
			updated.LastModified = now
			if err := r.updateAircraft(ctx, q, &updated); err != nil {
				return err
			}
			out = append(out, &updated)
			r.notifyUpdated(&updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertAircraft stores a new aircraft and assigns its surrogate ID.
func (r *Repository) InsertAircraft(ctx context.Context, a *Aircraft) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	return r.insertAircraft(ctx, q, a)
}

// UpdateAircraft rewrites a stored aircraft. The change notification does not
// fire for direct updates; it belongs to the upsert operations.
func (r *Repository) UpdateAircraft(ctx context.Context, a *Aircraft) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	return r.updateAircraft(ctx, q, a)
}

// UpdateAircraftModeSCountry rewrites just the country column of one row.
func (r *Repository) UpdateAircraftModeSCountry(ctx context.Context, id int64, country *string) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	b := newQueryBuilder(r.adapter)
	query := "UPDATE Aircraft SET ModeSCountry = " + b.arg(bindStr(country)) +
		" WHERE AircraftID = " + b.arg(id)
	if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update country: %w", err)
	}
	return nil
}

// DeleteAircraft removes one aircraft; its flights go with it.
func (r *Repository) DeleteAircraft(ctx context.Context, a *Aircraft) error {
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	b := newQueryBuilder(r.adapter)
	if _, err := q.ExecContext(ctx, "DELETE FROM Aircraft WHERE AircraftID = "+b.arg(a.ID), b.args...); err != nil {
		return fmt.Errorf("delete aircraft: %w", err)
	}
	return nil
}

func (r *Repository) insertAircraft(ctx context.Context, q db.Queryer, a *Aircraft) error {
	now := r.clock.Now()
	if a.FirstCreated.IsZero() {
		a.FirstCreated = now
	}
	if a.LastModified.IsZero() {
		a.LastModified = now
	}

	b := newQueryBuilder(r.adapter)
	query := `INSERT INTO Aircraft (ModeS, ModeSCountry, Registration, Manufacturer, Type,
		ICAOTypeCode, RegisteredOwners, OperatorFlagCode, SerialNo, YearBuilt,
		Interested, UserNotes, UserString1, UserTag, FirstCreated, LastModified) VALUES (` +
		b.arg(a.ModeS) + ", " + b.arg(bindStr(a.ModeSCountry)) + ", " + b.arg(bindStr(a.Registration)) + ", " +
		b.arg(bindStr(a.Manufacturer)) + ", " + b.arg(bindStr(a.Type)) + ", " +
		b.arg(bindStr(a.ICAOTypeCode)) + ", " + b.arg(bindStr(a.RegisteredOwners)) + ", " +
		b.arg(bindStr(a.OperatorFlagCode)) + ", " + b.arg(bindStr(a.SerialNo)) + ", " +
		b.arg(bindStr(a.YearBuilt)) + ", " + b.arg(boolInt(a.Interested)) + ", " +
		b.arg(bindStr(a.UserNotes)) + ", " + b.arg(bindStr(a.UserString1)) + ", " +
		b.arg(bindStr(a.UserTag)) + ", " + b.arg(r.bindTime(a.FirstCreated)) + ", " +
		b.arg(r.bindTime(a.LastModified)) +
		") RETURNING AircraftID"

	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert aircraft: %w", err)
	}
	return nil
}

func (r *Repository) updateAircraft(ctx context.Context, q db.Queryer, a *Aircraft) error {
	b := newQueryBuilder(r.adapter)
	query := "UPDATE Aircraft SET ModeSCountry = " + b.arg(bindStr(a.ModeSCountry)) +
		", Registration = " + b.arg(bindStr(a.Registration)) +
		", Manufacturer = " + b.arg(bindStr(a.Manufacturer)) +
		", Type = " + b.arg(bindStr(a.Type)) +
		", ICAOTypeCode = " + b.arg(bindStr(a.ICAOTypeCode)) +
		", RegisteredOwners = " + b.arg(bindStr(a.RegisteredOwners)) +
		", OperatorFlagCode = " + b.arg(bindStr(a.OperatorFlagCode)) +
		", SerialNo = " + b.arg(bindStr(a.SerialNo)) +
		", YearBuilt = " + b.arg(bindStr(a.YearBuilt)) +
		", Interested = " + b.arg(boolInt(a.Interested)) +
		", UserNotes = " + b.arg(bindStr(a.UserNotes)) +
		", UserString1 = " + b.arg(bindStr(a.UserString1)) +
		", UserTag = " + b.arg(bindStr(a.UserTag)) +
		", LastModified = " + b.arg(r.bindTime(a.LastModified)) +
		" WHERE AircraftID = " + b.arg(a.ID)

	if _, err := q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update aircraft: %w", err)
	}
	return nil
}

// notifyUpdated raises the change hook for a. Inside an open transaction the
// record is queued instead, so a later rollback never surfaces an update that
// was undone.
func (r *Repository) notifyUpdated(a *Aircraft) {
	if r.tx != nil && r.tx.InTransaction() {
		r.pending = append(r.pending, a)
		return
	}
	if r.OnAircraftUpdated != nil {
		r.OnAircraftUpdated(a)
	}
}

// dedupeUpper uppercases codes and removes duplicates, preserving order.
func dedupeUpper(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		u := strings.ToUpper(strings.TrimSpace(c))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
