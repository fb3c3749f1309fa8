package basestation

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"aircraft_db/internal/db"
)

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// queryBuilder assembles WHERE clauses and their bound arguments for one
// statement, numbering placeholders the way the adapter wants them.
type queryBuilder struct {
	adapter db.Adapter
	where   []string
	args    []any
}

func newQueryBuilder(adapter db.Adapter) *queryBuilder {
	return &queryBuilder{adapter: adapter}
}

// arg binds v and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return b.adapter.Placeholder(len(b.args))
}

// argList binds every value and returns the comma-separated placeholders,
// for IN lists.
func (b *queryBuilder) argList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = b.arg(v)
	}
	return strings.Join(parts, ", ")
}

func (b *queryBuilder) addWhere(clause string) {
	if clause != "" {
		b.where = append(b.where, clause)
	}
}

// whereSQL returns the assembled WHERE clause, empty when there are no
// conditions.
func (b *queryBuilder) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// applyCriteria translates the criteria object into WHERE conditions.
// expandCallsign is the alternates resolver, consulted only when the criteria
// asks for it; nil means no expansion.
func (b *queryBuilder) applyCriteria(c *Criteria, expandCallsign func(string) []string) {
	if c.Callsign != nil {
		values := []string{c.Callsign.Value}
		if c.UseAlternateCallsigns && expandCallsign != nil && c.Callsign.Value != "" {
			if alts := expandCallsign(c.Callsign.Value); len(alts) > 0 {
				values = alts
			}
		}
		b.addWhere(b.stringClause(colCallsign, c.Callsign, values))
	}
	if c.Icao != nil {
		b.addWhere(b.stringClause(colIcao, c.Icao, []string{c.Icao.Value}))
	}
	if c.Operator != nil {
		b.addWhere(b.stringClause(colOperator, c.Operator, []string{c.Operator.Value}))
	}
	if c.Country != nil {
		b.addWhere(b.stringClause(colCountry, c.Country, []string{c.Country.Value}))
	}
	if c.Registration != nil {
		b.addWhere(b.stringClause(colRegistration, c.Registration, []string{c.Registration.Value}))
	}
	if c.Type != nil {
		b.addWhere(b.stringClause(colType, c.Type, []string{c.Type.Value}))
	}
	if c.Date != nil {
		b.addWhere(b.timeRangeClause("f.StartTime", c.Date))
	}
	if c.FirstAltitude != nil {
		b.addWhere(b.intRangeClause("f.FirstAltitude", c.FirstAltitude))
	}
	if c.LastAltitude != nil {
		b.addWhere(b.intRangeClause("f.LastAltitude", c.LastAltitude))
	}
	if c.IsEmergency != nil {
		b.addWhere(b.boolClause("f.HadEmergency", c.IsEmergency))
	}
}

// stringClause builds the condition for one string column over one or more
// candidate values (more than one only for the alternate-callsign expansion),
// ORed together. Reverse negates the whole group, so NULL rows drop out of
// the negation on nullable columns as SQL's tri-valued logic dictates.
func (b *queryBuilder) stringClause(col stringColumn, f *StringFilter, values []string) string {
	var parts []string
	for _, v := range values {
		parts = append(parts, b.stringCondition(col, f.Condition, v))
	}

	clause := strings.Join(parts, " OR ")
	if len(parts) > 1 {
		clause = "(" + clause + ")"
	}
	if f.Reverse {
		clause = "NOT (" + clause + ")"
	}
	return clause
}

func (b *queryBuilder) stringCondition(col stringColumn, cond StringCondition, value string) string {
	// An unset value under Equals matches NULL and empty string alike.
	if value == "" && cond == Equals {
		return "(" + col.expr + " IS NULL OR " + col.expr + " = '')"
	}

	expr := col.expr
	if !col.caseSensitive {
		expr = "UPPER(" + expr + ")"
		value = strings.ToUpper(value)
	}

	switch cond {
	case Contains:
		return expr + " LIKE " + b.arg("%"+escapeLike(value)+"%") + likeEscape
	case StartsWith:
		return expr + " LIKE " + b.arg(escapeLike(value)+"%") + likeEscape
	case EndsWith:
		return expr + " LIKE " + b.arg("%"+escapeLike(value)) + likeEscape
	default:
		return expr + " = " + b.arg(value)
	}
}

const likeEscape = ` ESCAPE '\'`

// escapeLike protects the LIKE metacharacters in a literal value.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func (b *queryBuilder) timeRangeClause(col string, f *TimeRangeFilter) string {
	var parts []string
	if f.Lower != nil {
		parts = append(parts, col+" >= "+b.arg(b.adapter.TruncateDate(f.Lower.UTC())))
	}
	if f.Upper != nil {
		parts = append(parts, col+" <= "+b.arg(b.adapter.TruncateDate(f.Upper.UTC())))
	}
	return b.rangeClause(parts, f.Reverse)
}

func (b *queryBuilder) intRangeClause(col string, f *IntRangeFilter) string {
	var parts []string
	if f.Lower != nil {
		parts = append(parts, col+" >= "+b.arg(*f.Lower))
	}
	if f.Upper != nil {
		parts = append(parts, col+" <= "+b.arg(*f.Upper))
	}
	return b.rangeClause(parts, f.Reverse)
}

func (b *queryBuilder) rangeClause(parts []string, reverse bool) string {
	if len(parts) == 0 {
		return ""
	}
	clause := strings.Join(parts, " AND ")
	if len(parts) > 1 {
		clause = "(" + clause + ")"
	}
	if reverse {
		clause = "NOT (" + clause + ")"
	}
	return clause
}

func (b *queryBuilder) boolClause(col string, f *BoolFilter) string {
	clause := col + " = " + b.arg(boolInt(f.Value))
	if f.Reverse {
		clause = "NOT (" + clause + ")"
	}
	return clause
}

// orderBySQL builds the ORDER BY clause from at most the first two recognized
// sort fields. Unrecognized names are skipped, never an error.
func orderBySQL(sorts []SortBy) string {
	var parts []string
	for _, s := range sorts {
		col, ok := sortColumns[strings.ToLower(s.Field)]
		if !ok {
			continue
		}
		dir := " DESC"
		if s.Ascending {
			dir = " ASC"
		}
		parts = append(parts, col+dir)
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// limitSQL builds the pagination clause from zero-based inclusive row
// bounds. A negative bound means unlimited on that side.
func limitSQL(kind db.Kind, fromRow, toRow int) string {
	offset := fromRow
	if offset < 0 {
		offset = 0
	}

	switch {
	case toRow < 0 && offset == 0:
		return ""
	case toRow < 0:
		if kind == db.Postgres {
			return fmt.Sprintf(" OFFSET %d", offset)
		}
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		count := toRow - offset + 1
		if count < 0 {
			count = 0
		}
		return fmt.Sprintf(" LIMIT %d OFFSET %d", count, offset)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// aircraftColumns is the SELECT list for one Aircraft row, alias a.
const aircraftColumns = `a.AircraftID, a.ModeS, a.ModeSCountry, a.Registration, a.Manufacturer,
	a.Type, a.ICAOTypeCode, a.RegisteredOwners, a.OperatorFlagCode, a.SerialNo, a.YearBuilt,
	a.Interested, a.UserNotes, a.UserString1, a.UserTag, a.FirstCreated, a.LastModified`

// flightColumns is the SELECT list for one Flights row joined to its
// Aircraft, aliases f and a.
const flightColumns = `f.FlightID, f.SessionID, f.AircraftID, f.StartTime, f.EndTime, f.Callsign,
	f.FirstAltitude, f.FirstGroundSpeed, f.FirstLat, f.FirstLon, f.FirstTrack,
	f.FirstVerticalRate, f.FirstSquawk, f.FirstIsOnGround,
	f.LastAltitude, f.LastGroundSpeed, f.LastLat, f.LastLon, f.LastTrack,
	f.LastVerticalRate, f.LastSquawk, f.LastIsOnGround,
	f.HadAlert, f.HadEmergency, f.HadSpi,
	f.NumPosMsgRec, f.NumADSBMsgRec, f.NumModeSMsgRec, f.NumIDMsgRec, f.NumAirPosMsgRec, ` +
	aircraftColumns

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAircraft reads one Aircraft from a row selected with aircraftColumns.
func scanAircraft(row rowScanner) (*Aircraft, error) {
	var (
		a          Aircraft
		country    sql.NullString
		reg        sql.NullString
		manu       sql.NullString
		model      sql.NullString
		typeCode   sql.NullString
		owners     sql.NullString
		flagCode   sql.NullString
		serial     sql.NullString
		year       sql.NullString
		interested int64
		notes      sql.NullString
		userStr    sql.NullString
		userTag    sql.NullString
	)

	err := row.Scan(&a.ID, &a.ModeS, &country, &reg, &manu, &model, &typeCode, &owners,
		&flagCode, &serial, &year, &interested, &notes, &userStr, &userTag,
		&a.FirstCreated, &a.LastModified)
	if err != nil {
		return nil, err
	}

	a.ModeSCountry = nullStr(country)
	a.Registration = nullStr(reg)
	a.Manufacturer = nullStr(manu)
	a.Type = nullStr(model)
	a.ICAOTypeCode = nullStr(typeCode)
	a.RegisteredOwners = nullStr(owners)
	a.OperatorFlagCode = nullStr(flagCode)
	a.SerialNo = nullStr(serial)
	a.YearBuilt = nullStr(year)
	a.Interested = interested != 0
	a.UserNotes = nullStr(notes)
	a.UserString1 = nullStr(userStr)
	a.UserTag = nullStr(userTag)
	a.FirstCreated = a.FirstCreated.UTC()
	a.LastModified = a.LastModified.UTC()
	return &a, nil
}

// scanFlight reads one Flight plus its Aircraft from a row selected with
// flightColumns.
func scanFlight(row rowScanner) (*Flight, error) {
	var (
		f        Flight
		a        Aircraft
		endTime  sql.NullTime
		callsign sql.NullString

		firstAlt, firstVRate, firstSquawk   sql.NullInt64
		firstGS, firstLat, firstLon, firstT sql.NullFloat64
		firstGround                         int64

		lastAlt, lastVRate, lastSquawk   sql.NullInt64
		lastGS, lastLat, lastLon, lastT  sql.NullFloat64
		lastGround                       int64
		hadAlert, hadEmergency, hadSpi   int64
		numPos, numADSB, numModeS        sql.NullInt64
		numID, numAirPos                 sql.NullInt64

		country, reg, manu, model, typeCode, owners sql.NullString
		flagCode, serial, year, notes               sql.NullString
		userStr, userTag                            sql.NullString
		interested                                  int64
	)

	err := row.Scan(&f.ID, &f.SessionID, &f.AircraftID, &f.StartTime, &endTime, &callsign,
		&firstAlt, &firstGS, &firstLat, &firstLon, &firstT, &firstVRate, &firstSquawk, &firstGround,
		&lastAlt, &lastGS, &lastLat, &lastLon, &lastT, &lastVRate, &lastSquawk, &lastGround,
		&hadAlert, &hadEmergency, &hadSpi,
		&numPos, &numADSB, &numModeS, &numID, &numAirPos,
		&a.ID, &a.ModeS, &country, &reg, &manu, &model, &typeCode, &owners,
		&flagCode, &serial, &year, &interested, &notes, &userStr, &userTag,
		&a.FirstCreated, &a.LastModified)
	if err != nil {
		return nil, err
	}

	f.StartTime = f.StartTime.UTC()
	f.EndTime = nullTime(endTime)
	f.Callsign = nullStr(callsign)
	f.FirstAltitude = nullInt(firstAlt)
	f.FirstGroundSpeed = nullFloat(firstGS)
	f.FirstLat = nullFloat(firstLat)
	f.FirstLon = nullFloat(firstLon)
	f.FirstTrack = nullFloat(firstT)
	f.FirstVerticalRate = nullInt(firstVRate)
	f.FirstSquawk = nullInt(firstSquawk)
	f.FirstIsOnGround = firstGround != 0
	f.LastAltitude = nullInt(lastAlt)
	f.LastGroundSpeed = nullFloat(lastGS)
	f.LastLat = nullFloat(lastLat)
	f.LastLon = nullFloat(lastLon)
	f.LastTrack = nullFloat(lastT)
	f.LastVerticalRate = nullInt(lastVRate)
	f.LastSquawk = nullInt(lastSquawk)
	f.LastIsOnGround = lastGround != 0
	f.HadAlert = hadAlert != 0
	f.HadEmergency = hadEmergency != 0
	f.HadSpi = hadSpi != 0
	f.NumPosMsgRec = nullInt(numPos)
	f.NumADSBMsgRec = nullInt(numADSB)
	f.NumModeSMsgRec = nullInt(numModeS)
	f.NumIDMsgRec = nullInt(numID)
	f.NumAirPosMsgRec = nullInt(numAirPos)

	a.ModeSCountry = nullStr(country)
	a.Registration = nullStr(reg)
	a.Manufacturer = nullStr(manu)
	a.Type = nullStr(model)
	a.ICAOTypeCode = nullStr(typeCode)
	a.RegisteredOwners = nullStr(owners)
	a.OperatorFlagCode = nullStr(flagCode)
	a.SerialNo = nullStr(serial)
	a.YearBuilt = nullStr(year)
	a.Interested = interested != 0
	a.UserNotes = nullStr(notes)
	a.UserString1 = nullStr(userStr)
	a.UserTag = nullStr(userTag)
	a.FirstCreated = a.FirstCreated.UTC()
	a.LastModified = a.LastModified.UTC()

	f.Aircraft = &a
	return &f, nil
}

// scanAircraftAndCount reads one Aircraft plus a trailing flight count.
func scanAircraftAndCount(row rowScanner) (*AircraftAndFlightsCount, error) {
	var (
		a          Aircraft
		country    sql.NullString
		reg        sql.NullString
		manu       sql.NullString
		model      sql.NullString
		typeCode   sql.NullString
		owners     sql.NullString
		flagCode   sql.NullString
		serial     sql.NullString
		year       sql.NullString
		interested int64
		notes      sql.NullString
		userStr    sql.NullString
		userTag    sql.NullString
		count      int
	)

	err := row.Scan(&a.ID, &a.ModeS, &country, &reg, &manu, &model, &typeCode, &owners,
		&flagCode, &serial, &year, &interested, &notes, &userStr, &userTag,
		&a.FirstCreated, &a.LastModified, &count)
	if err != nil {
		return nil, err
	}

	a.ModeSCountry = nullStr(country)
	a.Registration = nullStr(reg)
	a.Manufacturer = nullStr(manu)
	a.Type = nullStr(model)
	a.ICAOTypeCode = nullStr(typeCode)
	a.RegisteredOwners = nullStr(owners)
	a.OperatorFlagCode = nullStr(flagCode)
	a.SerialNo = nullStr(serial)
	a.YearBuilt = nullStr(year)
	a.Interested = interested != 0
	a.UserNotes = nullStr(notes)
	a.UserString1 = nullStr(userStr)
	a.UserTag = nullStr(userTag)
	a.FirstCreated = a.FirstCreated.UTC()
	a.LastModified = a.LastModified.UTC()
	return &AircraftAndFlightsCount{Aircraft: &a, FlightsCount: count}, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
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

// bindInt returns the bind value for a nullable integer.
func bindInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// bindFloat returns the bind value for a nullable float.
func bindFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// bindStr returns the bind value for a nullable string.
func bindStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
