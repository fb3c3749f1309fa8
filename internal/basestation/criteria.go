package basestation

import "time"

// StringCondition is the match mode of a string filter.
type StringCondition int

const (
	// Equals matches the whole value. A null-or-empty criteria value matches
	// stored NULL and empty string alike.
	Equals StringCondition = iota
	// Contains matches a substring.
	Contains
	// StartsWith matches a prefix.
	StartsWith
	// EndsWith matches a suffix.
	EndsWith
)

// StringFilter filters one string column. Reverse negates the predicate with
// SQL semantics: rows where the column is NULL never satisfy the negation of
// a test on a nullable column.
type StringFilter struct {
	Value     string
	Condition StringCondition
	Reverse   bool
}

// TimeRangeFilter filters a timestamp column. Bounds are inclusive; a nil
// bound is unbounded on that side.
type TimeRangeFilter struct {
	Lower   *time.Time
	Upper   *time.Time
	Reverse bool
}

// IntRangeFilter filters an integer column. Bounds are inclusive; a nil
// bound is unbounded on that side.
type IntRangeFilter struct {
	Lower   *int
	Upper   *int
	Reverse bool
}

// BoolFilter filters a flag column for equality.
type BoolFilter struct {
	Value   bool
	Reverse bool
}

// Criteria is the abstract filter passed to the flight queries. Nil filters
// are absent. Every field maps to exactly one physical column, either on
// Flights or, via the join, on Aircraft; the mapping lives in the column
// tables below.
type Criteria struct {
	Callsign *StringFilter
	// UseAlternateCallsigns expands the callsign value through the
	// alternates resolver and matches any of the expanded set.
	UseAlternateCallsigns bool

	Date          *TimeRangeFilter
	IsEmergency   *BoolFilter
	FirstAltitude *IntRangeFilter
	LastAltitude  *IntRangeFilter

	Icao         *StringFilter
	Operator     *StringFilter
	Country      *StringFilter
	Registration *StringFilter
	Type         *StringFilter
}

// stringColumn describes the physical column behind one string criteria
// field.
type stringColumn struct {
	expr          string // qualified column
	caseSensitive bool
	notNull       bool
}

// The fixed field-to-column tables. Callsign, Registration, Icao and Type
// match case-insensitively; Operator and Country match case-sensitively,
// reflecting airline-code casing conventions. ModeS is the only NOT NULL
// string column.
var (
	colCallsign     = stringColumn{expr: "f.Callsign"}
	colIcao         = stringColumn{expr: "a.ModeS", notNull: true}
	colOperator     = stringColumn{expr: "a.RegisteredOwners", caseSensitive: true}
	colCountry      = stringColumn{expr: "a.ModeSCountry", caseSensitive: true}
	colRegistration = stringColumn{expr: "a.Registration"}
	colType         = stringColumn{expr: "a.ICAOTypeCode"}
)

// sortColumns is the closed set of sort field names accepted by the flight
// queries, compared case-insensitively. Names outside the set are ignored.
var sortColumns = map[string]string{
	"callsign":      "f.Callsign",
	"country":       "a.ModeSCountry",
	"date":          "f.StartTime",
	"model":         "a.Type",
	"type":          "a.ICAOTypeCode",
	"operator":      "a.RegisteredOwners",
	"reg":           "a.Registration",
	"icao":          "a.ModeS",
	"firstaltitude": "f.FirstAltitude",
	"lastaltitude":  "f.LastAltitude",
}

// SortBy is one sort key for the flight queries.
type SortBy struct {
	Field     string
	Ascending bool
}
