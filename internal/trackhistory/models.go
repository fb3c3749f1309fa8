// Package trackhistory implements the long-running track-history store: an
// ordered append-only state log per aircraft track, with compaction and
// expiry retention, and the dimension tables the states hang off.
package trackhistory

import "time"

// Aircraft is the track-history store's own aircraft dimension. Deleting an
// aircraft cascades through its histories and states; deleting a referenced
// dimension row only nulls the foreign key here.
type Aircraft struct {
	ID             int64
	Icao           string
	Registration   *string
	CountryID      *int64
	OperatorID     *int64
	AircraftTypeID *int64
	IsMilitary     bool
	CreatedUtc     time.Time
	UpdatedUtc     time.Time
}

// TrackHistory is one continuous tracked flight. IsPreserved exempts it from
// truncation and expiry; deletion is terminal.
type TrackHistory struct {
	ID          int64
	AircraftID  int64
	IsPreserved bool
	CreatedUtc  time.Time
	UpdatedUtc  time.Time
}

// TrackHistoryState is one telemetry snapshot. SequenceNumber is assigned by
// the caller, strictly increasing per history, and is the only ordering key;
// neither TimestampUtc nor insertion order is authoritative. Nullable fields
// are pointers so "not reported" round trips as NULL.
type TrackHistoryState struct {
	ID             int64
	TrackHistoryID int64
	TimestampUtc   time.Time
	SequenceNumber int64

	ReceiverID        *int64
	SignalLevel       *int
	Latitude          *float64
	Longitude         *float64
	IsMlat            *bool
	Altitude          *int
	TargetAltitude    *int
	AirPressureInHg   *float64
	GroundSpeed       *float64
	Track             *float64
	TrackIsHeading    *bool
	TargetTrack       *float64
	VerticalRate      *int
	Squawk            *int
	IdentActive       *bool
	Callsign          *string
	IsCallsignSuspect *bool

	CreatedUtc time.Time
	UpdatedUtc time.Time
}

// mergeFrom folds s onto the receiver: every non-null telemetry field of s
// overwrites; null never erases an earlier value. TimestampUtc and
// SequenceNumber always advance to s's values.
func (t *TrackHistoryState) mergeFrom(s *TrackHistoryState) {
	t.TimestampUtc = s.TimestampUtc
	t.SequenceNumber = s.SequenceNumber

	if s.ReceiverID != nil {
		t.ReceiverID = s.ReceiverID
	}
	if s.SignalLevel != nil {
		t.SignalLevel = s.SignalLevel
	}
	if s.Latitude != nil {
		t.Latitude = s.Latitude
	}
	if s.Longitude != nil {
		t.Longitude = s.Longitude
	}
	if s.IsMlat != nil {
		t.IsMlat = s.IsMlat
	}
	if s.Altitude != nil {
		t.Altitude = s.Altitude
	}
	if s.TargetAltitude != nil {
		t.TargetAltitude = s.TargetAltitude
	}
	if s.AirPressureInHg != nil {
		t.AirPressureInHg = s.AirPressureInHg
	}
	if s.GroundSpeed != nil {
		t.GroundSpeed = s.GroundSpeed
	}
	if s.Track != nil {
		t.Track = s.Track
	}
	if s.TrackIsHeading != nil {
		t.TrackIsHeading = s.TrackIsHeading
	}
	if s.TargetTrack != nil {
		t.TargetTrack = s.TargetTrack
	}
	if s.VerticalRate != nil {
		t.VerticalRate = s.VerticalRate
	}
	if s.Squawk != nil {
		t.Squawk = s.Squawk
	}
	if s.IdentActive != nil {
		t.IdentActive = s.IdentActive
	}
	if s.Callsign != nil {
		t.Callsign = s.Callsign
	}
	if s.IsCallsignSuspect != nil {
		t.IsCallsignSuspect = s.IsCallsignSuspect
	}
}

// Country, Manufacturer, Model and Receiver are name-keyed dimension rows
// with case-insensitive unique names.
type Country struct {
	ID         int64
	Name       string
	CreatedUtc time.Time
	UpdatedUtc time.Time
}

type Manufacturer struct {
	ID         int64
	Name       string
	CreatedUtc time.Time
	UpdatedUtc time.Time
}

type Model struct {
	ID         int64
	Name       string
	CreatedUtc time.Time
	UpdatedUtc time.Time
}

type Receiver struct {
	ID         int64
	Name       string
	CreatedUtc time.Time
	UpdatedUtc time.Time
}

// Operator is keyed by the (Icao, Name) pair, both case-insensitive.
type Operator struct {
	ID         int64
	Icao       string
	Name       string
	CreatedUtc time.Time
	UpdatedUtc time.Time
}

// AircraftType is keyed by the ICAO type designator. Its manufacturer/model
// links are nulled when those rows are deleted.
type AircraftType struct {
	ID             int64
	Icao           string
	ManufacturerID *int64
	ModelID        *int64
	CreatedUtc     time.Time
	UpdatedUtc     time.Time
}

// RetentionResult aggregates what a retention pass touched: row counts and
// the earliest/latest CreatedUtc among the affected states. The zero value
// means nothing was touched.
type RetentionResult struct {
	CountHistories int
	CountStates    int
	EarliestUtc    time.Time
	LatestUtc      time.Time
}

// add folds another result in.
func (r *RetentionResult) add(other RetentionResult) {
	r.CountHistories += other.CountHistories
	r.CountStates += other.CountStates
	r.observe(other.EarliestUtc)
	r.observe(other.LatestUtc)
}

// observe widens the earliest/latest window to include t.
func (r *RetentionResult) observe(t time.Time) {
	if t.IsZero() {
		return
	}
	if r.EarliestUtc.IsZero() || t.Before(r.EarliestUtc) {
		r.EarliestUtc = t
	}
	if r.LatestUtc.IsZero() || t.After(r.LatestUtc) {
		r.LatestUtc = t
	}
}
