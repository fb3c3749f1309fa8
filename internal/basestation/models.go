// Package basestation implements the flight/aircraft store: criteria-based
// flight queries, aircraft upsert and missing-aircraft tracking, and the
// session/location/system-event tables, over either supported backend engine.
package basestation

import (
	"strings"
	"time"
)

// missingMarker is the sentinel written to UserString1 when an aircraft is
// recorded as seen-but-never-looked-up.
const missingMarker = "Missing"

// Aircraft is one row of the Aircraft table. ModeS is the 24-bit hex ICAO
// transponder address and the natural key; matching on it is
// case-insensitive. Nullable columns are pointers so an unset value round
// trips as SQL NULL.
type Aircraft struct {
	ID               int64
	ModeS            string
	ModeSCountry     *string
	Registration     *string
	Manufacturer     *string
	Type             *string // model name, e.g. "A320-214"
	ICAOTypeCode     *string
	RegisteredOwners *string // operator
	OperatorFlagCode *string
	SerialNo         *string
	YearBuilt        *string
	Interested       bool
	UserNotes        *string
	UserString1      *string
	UserTag          *string
	FirstCreated     time.Time
	LastModified     time.Time
}

// IsMissing reports whether the record only exists to mark a code that was
// seen but never looked up: the sentinel is set and no identifying data has
// ever been stored. Any registration, manufacturer, model or operator value
// permanently disqualifies the record, whatever the sentinel says.
func (a *Aircraft) IsMissing() bool {
	if a == nil || strval(a.UserString1) != missingMarker {
		return false
	}
	return !hasval(a.Registration) && !hasval(a.Manufacturer) &&
		!hasval(a.Type) && !hasval(a.RegisteredOwners)
}

// Flight is one row of the Flights table, joined to its Aircraft when loaded
// through the criteria queries. Deleting the owning Aircraft or Session
// cascades here.
type Flight struct {
	ID         int64
	SessionID  int64
	AircraftID int64
	Aircraft   *Aircraft

	Callsign  *string
	StartTime time.Time
	EndTime   *time.Time

	FirstAltitude     *int
	FirstGroundSpeed  *float64
	FirstLat          *float64
	FirstLon          *float64
	FirstTrack        *float64
	FirstVerticalRate *int
	FirstSquawk       *int
	FirstIsOnGround   bool

	LastAltitude     *int
	LastGroundSpeed  *float64
	LastLat          *float64
	LastLon          *float64
	LastTrack        *float64
	LastVerticalRate *int
	LastSquawk       *int
	LastIsOnGround   bool

	HadAlert     bool
	HadEmergency bool
	HadSpi       bool

	NumPosMsgRec    *int
	NumADSBMsgRec   *int
	NumModeSMsgRec  *int
	NumIDMsgRec     *int
	NumAirPosMsgRec *int
}

// Session is one recording session. LocationID of zero means no location; the
// column stores NULL in that case and is nulled when the Location is deleted.
type Session struct {
	ID         int64
	LocationID int64
	StartTime  time.Time
	EndTime    *time.Time
}

// Location is a receiver location.
type Location struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// SystemEvent is one row of the SystemEvents log table.
type SystemEvent struct {
	ID        int64
	TimeStamp time.Time
	App       string
	Msg       string
}

// AircraftAndFlightsCount pairs an aircraft with its flight count for the
// multi-code lookup.
type AircraftAndFlightsCount struct {
	Aircraft     *Aircraft
	FlightsCount int
}

// AircraftLookup carries the fields an external aircraft-details lookup can
// supply for an upsert. A lookup is a complete statement of the source's
// knowledge: every field is written as given, so a nil field stores NULL on
// insert and on update alike. Consumers must not send partial lookups.
type AircraftLookup struct {
	ModeS            string
	Registration     *string
	Country          *string
	Manufacturer     *string
	Model            *string
	ICAOTypeCode     *string
	Operator         *string
	OperatorFlagCode *string
	SerialNo         *string
	YearBuilt        *string
}

// ApplyTo copies the lookup's fields onto a.
func (l *AircraftLookup) ApplyTo(a *Aircraft) {
	a.ModeS = l.ModeS
	a.Registration = l.Registration
	a.ModeSCountry = l.Country
	a.Manufacturer = l.Manufacturer
	a.Type = l.Model
	a.ICAOTypeCode = l.ICAOTypeCode
	a.RegisteredOwners = l.Operator
	a.OperatorFlagCode = l.OperatorFlagCode
	a.SerialNo = l.SerialNo
	a.YearBuilt = l.YearBuilt
}

func strval(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hasval(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func strptr(s string) *string { return &s }
