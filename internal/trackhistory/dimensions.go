package trackhistory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"aircraft_db/internal/db"
)

// namedRow is the shape shared by the name-keyed dimension tables.
type namedRow struct {
	id         int64
	name       string
	createdUtc time.Time
	updatedUtc time.Time
}

// getOrCreateNamed fetches the row whose name matches case-insensitively,
// inserting it with the caller's casing when absent.
func (r *Repository) getOrCreateNamed(ctx context.Context, table, idCol, name string) (row namedRow, created bool, err error) {
	if _, ok, werr := r.writer(); werr != nil || !ok {
		return namedRow{}, false, werr
	}

	err = r.inTransaction(ctx, func(q db.Queryer) error {
		a := r.newArgs()
		query := fmt.Sprintf(`SELECT %s, Name, CreatedUtc, UpdatedUtc FROM %s WHERE UPPER(Name) = %s`,
			idCol, table, a.add(strings.ToUpper(name)))
		serr := q.QueryRowContext(ctx, query, a.args...).
			Scan(&row.id, &row.name, &row.createdUtc, &row.updatedUtc)
		if serr == nil {
			return nil
		}
		if !isNoRows(serr) {
			return fmt.Errorf("get %s %q: %w", table, name, serr)
		}

		now := r.bindTime(r.clock.Now())
		a = r.newArgs()
		query = fmt.Sprintf(`INSERT INTO %s (Name, CreatedUtc, UpdatedUtc) VALUES (%s, %s, %s) RETURNING %s`,
			table, a.add(name), a.add(now), a.add(now), idCol)
		if ierr := q.QueryRowContext(ctx, query, a.args...).Scan(&row.id); ierr != nil {
			return fmt.Errorf("insert %s %q: %w", table, name, ierr)
		}
		row.name = name
		row.createdUtc = now
		row.updatedUtc = now
		created = true
		return nil
	})
	if err != nil {
		return namedRow{}, false, err
	}
	return row, created, nil
}

// deleteByID removes one dimension row; referencing foreign keys go null.
// A zero id is a no-op.
func (r *Repository) deleteByID(ctx context.Context, table, idCol string, id int64) error {
	if id == 0 {
		return nil
	}
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	a := r.newArgs()
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = %s`, table, idCol, a.add(id))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	return nil
}

// GetOrCreateCountry fetches the country called name, creating it when
// absent. The match is case-insensitive and the stored casing wins.
func (r *Repository) GetOrCreateCountry(ctx context.Context, name string) (*Country, bool, error) {
	row, created, err := r.getOrCreateNamed(ctx, "Country", "CountryID", name)
	if err != nil || row.id == 0 {
		return nil, false, err
	}
	return &Country{ID: row.id, Name: row.name, CreatedUtc: row.createdUtc, UpdatedUtc: row.updatedUtc}, created, nil
}

// DeleteCountry removes c; aircraft pointing at it lose the link but stay.
func (r *Repository) DeleteCountry(ctx context.Context, c *Country) error {
	if c == nil {
		return nil
	}
	return r.deleteByID(ctx, "Country", "CountryID", c.ID)
}

// GetOrCreateManufacturer fetches the manufacturer called name, creating it
// when absent.
func (r *Repository) GetOrCreateManufacturer(ctx context.Context, name string) (*Manufacturer, bool, error) {
	row, created, err := r.getOrCreateNamed(ctx, "Manufacturer", "ManufacturerID", name)
	if err != nil || row.id == 0 {
		return nil, false, err
	}
	return &Manufacturer{ID: row.id, Name: row.name, CreatedUtc: row.createdUtc, UpdatedUtc: row.updatedUtc}, created, nil
}

// DeleteManufacturer removes m; aircraft types pointing at it lose the link.
func (r *Repository) DeleteManufacturer(ctx context.Context, m *Manufacturer) error {
	if m == nil {
		return nil
	}
	return r.deleteByID(ctx, "Manufacturer", "ManufacturerID", m.ID)
}

// GetOrCreateModel fetches the model called name, creating it when absent.
func (r *Repository) GetOrCreateModel(ctx context.Context, name string) (*Model, bool, error) {
	row, created, err := r.getOrCreateNamed(ctx, "Model", "ModelID", name)
	if err != nil || row.id == 0 {
		return nil, false, err
	}
	return &Model{ID: row.id, Name: row.name, CreatedUtc: row.createdUtc, UpdatedUtc: row.updatedUtc}, created, nil
}

// DeleteModel removes m; aircraft types pointing at it lose the link.
func (r *Repository) DeleteModel(ctx context.Context, m *Model) error {
	if m == nil {
		return nil
	}
	return r.deleteByID(ctx, "Model", "ModelID", m.ID)
}

// GetOrCreateReceiver fetches the receiver called name, creating it when
// absent.
func (r *Repository) GetOrCreateReceiver(ctx context.Context, name string) (*Receiver, bool, error) {
	row, created, err := r.getOrCreateNamed(ctx, "Receiver", "ReceiverID", name)
	if err != nil || row.id == 0 {
		return nil, false, err
	}
	return &Receiver{ID: row.id, Name: row.name, CreatedUtc: row.createdUtc, UpdatedUtc: row.updatedUtc}, created, nil
}

// DeleteReceiver removes rc; states that referenced it keep their telemetry
// with a nulled receiver link.
func (r *Repository) DeleteReceiver(ctx context.Context, rc *Receiver) error {
	if rc == nil {
		return nil
	}
	return r.deleteByID(ctx, "Receiver", "ReceiverID", rc.ID)
}

// GetOrCreateOperator fetches the operator keyed by the (icao, name) pair,
// both matched case-insensitively, creating it when absent.
func (r *Repository) GetOrCreateOperator(ctx context.Context, icao, name string) (op *Operator, created bool, err error) {
	if _, ok, werr := r.writer(); werr != nil || !ok {
		return nil, false, werr
	}

	err = r.inTransaction(ctx, func(q db.Queryer) error {
		var row Operator
		var rowIcao, rowName sql.NullString
		a := r.newArgs()
		query := fmt.Sprintf(`
			SELECT OperatorID, Icao, Name, CreatedUtc, UpdatedUtc FROM Operator
			WHERE UPPER(COALESCE(Icao, '')) = %s AND UPPER(COALESCE(Name, '')) = %s`,
			a.add(strings.ToUpper(icao)), a.add(strings.ToUpper(name)))
		serr := q.QueryRowContext(ctx, query, a.args...).
			Scan(&row.ID, &rowIcao, &rowName, &row.CreatedUtc, &row.UpdatedUtc)
		if serr == nil {
			if rowIcao.Valid {
				row.Icao = rowIcao.String
			}
			if rowName.Valid {
				row.Name = rowName.String
			}
			op = &row
			return nil
		}
		if !isNoRows(serr) {
			return fmt.Errorf("get operator %q/%q: %w", icao, name, serr)
		}

		now := r.bindTime(r.clock.Now())
		op = &Operator{Icao: icao, Name: name, CreatedUtc: now, UpdatedUtc: now}
		a = r.newArgs()
		query = fmt.Sprintf(`INSERT INTO Operator (Icao, Name, CreatedUtc, UpdatedUtc) VALUES (%s, %s, %s, %s) RETURNING OperatorID`,
			a.add(icao), a.add(name), a.add(now), a.add(now))
		if ierr := q.QueryRowContext(ctx, query, a.args...).Scan(&op.ID); ierr != nil {
			return fmt.Errorf("insert operator %q/%q: %w", icao, name, ierr)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return op, created, nil
}

// DeleteOperator removes op; aircraft pointing at it lose the link.
func (r *Repository) DeleteOperator(ctx context.Context, op *Operator) error {
	if op == nil {
		return nil
	}
	return r.deleteByID(ctx, "Operator", "OperatorID", op.ID)
}

// GetOrCreateAircraftType fetches the type with the given ICAO designator,
// matched case-insensitively, creating a bare row when absent.
func (r *Repository) GetOrCreateAircraftType(ctx context.Context, icao string) (at *AircraftType, created bool, err error) {
	if _, ok, werr := r.writer(); werr != nil || !ok {
		return nil, false, werr
	}

	err = r.inTransaction(ctx, func(q db.Queryer) error {
		var row AircraftType
		var manufacturer, model sql.NullInt64
		a := r.newArgs()
		query := fmt.Sprintf(`
			SELECT AircraftTypeID, Icao, ManufacturerID, ModelID, CreatedUtc, UpdatedUtc FROM AircraftType
			WHERE UPPER(Icao) = %s`, a.add(strings.ToUpper(icao)))
		serr := q.QueryRowContext(ctx, query, a.args...).
			Scan(&row.ID, &row.Icao, &manufacturer, &model, &row.CreatedUtc, &row.UpdatedUtc)
		if serr == nil {
			row.ManufacturerID = nullInt64(manufacturer)
			row.ModelID = nullInt64(model)
			at = &row
			return nil
		}
		if !isNoRows(serr) {
			return fmt.Errorf("get aircraft type %q: %w", icao, serr)
		}

		now := r.bindTime(r.clock.Now())
		at = &AircraftType{Icao: icao, CreatedUtc: now, UpdatedUtc: now}
		a = r.newArgs()
		query = fmt.Sprintf(`INSERT INTO AircraftType (Icao, CreatedUtc, UpdatedUtc) VALUES (%s, %s, %s) RETURNING AircraftTypeID`,
			a.add(icao), a.add(now), a.add(now))
		if ierr := q.QueryRowContext(ctx, query, a.args...).Scan(&at.ID); ierr != nil {
			return fmt.Errorf("insert aircraft type %q: %w", icao, ierr)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return at, created, nil
}

// SaveAircraftType updates at's manufacturer and model links.
func (r *Repository) SaveAircraftType(ctx context.Context, at *AircraftType) error {
	if at == nil || at.ID == 0 {
		return fmt.Errorf("aircraft type was never saved: %w", db.ErrValidation)
	}
	q, ok, err := r.writer()
	if err != nil || !ok {
		return err
	}
	at.UpdatedUtc = r.bindTime(r.clock.Now())
	a := r.newArgs()
	query := fmt.Sprintf(`
		UPDATE AircraftType
		SET Icao = %s, ManufacturerID = %s, ModelID = %s, UpdatedUtc = %s
		WHERE AircraftTypeID = %s`,
		a.add(at.Icao), a.add(bindInt64(at.ManufacturerID)), a.add(bindInt64(at.ModelID)),
		a.add(at.UpdatedUtc), a.add(at.ID))
	if _, err := q.ExecContext(ctx, query, a.args...); err != nil {
		return fmt.Errorf("update aircraft type %d: %w", at.ID, err)
	}
	return nil
}

// DeleteAircraftType removes at; aircraft pointing at it lose the link.
func (r *Repository) DeleteAircraftType(ctx context.Context, at *AircraftType) error {
	if at == nil {
		return nil
	}
	return r.deleteByID(ctx, "AircraftType", "AircraftTypeID", at.ID)
}
