package trackhistory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraft_db/internal/db"
)

func TestSaveStateValidation(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	ts := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range map[string]*TrackHistoryState{
		"no history":  {SequenceNumber: 1, TimestampUtc: ts},
		"no sequence": {TrackHistoryID: 1, TimestampUtc: ts},
		"no time":     {TrackHistoryID: 1, SequenceNumber: 1},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, r.SaveState(ctx, s), db.ErrValidation)
		})
	}
}

func TestSaveStatesRejectsWholeBatch(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "ABC001")
	ts := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	err := r.SaveStates(ctx, []*TrackHistoryState{
		{TrackHistoryID: h.ID, SequenceNumber: 1, TimestampUtc: ts},
		{TrackHistoryID: h.ID, TimestampUtc: ts}, // no sequence number
	})
	require.ErrorIs(t, err, db.ErrValidation)

	got, err := r.GetStatesByTrackHistory(ctx, h)
	require.NoError(t, err)
	assert.Empty(t, got, "a bad state must fail the batch before anything is written")
}

func TestSaveStateRoundTrip(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "ABC002")

	s := &TrackHistoryState{
		TrackHistoryID:    h.ID,
		TimestampUtc:      time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
		SequenceNumber:    1,
		SignalLevel:       ip(-12),
		Latitude:          fp(51.4706),
		Longitude:         fp(-0.4619),
		IsMlat:            bp(false),
		Altitude:          ip(1200),
		GroundSpeed:       fp(180.5),
		Track:             fp(271.2),
		TrackIsHeading:    bp(true),
		VerticalRate:      ip(-640),
		Squawk:            ip(7000),
		IdentActive:       bp(false),
		Callsign:          sp("BAW23"),
		IsCallsignSuspect: bp(true),
	}
	require.NoError(t, r.SaveState(ctx, s))
	require.NotZero(t, s.ID)

	got, err := r.GetStateByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -12, *got.SignalLevel)
	assert.Equal(t, 51.4706, *got.Latitude)
	assert.Equal(t, -0.4619, *got.Longitude)
	assert.False(t, *got.IsMlat)
	assert.Equal(t, 1200, *got.Altitude)
	assert.Nil(t, got.TargetAltitude)
	assert.Nil(t, got.AirPressureInHg)
	assert.Equal(t, 180.5, *got.GroundSpeed)
	assert.True(t, *got.TrackIsHeading)
	assert.Equal(t, -640, *got.VerticalRate)
	assert.Equal(t, 7000, *got.Squawk)
	assert.Equal(t, "BAW23", *got.Callsign)
	assert.True(t, *got.IsCallsignSuspect)
}

func TestSaveStateUpdatesAndMovesBetweenHistories(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	first := seedHistory(t, r, "ABC003")
	second := seedHistory(t, r, "ABC004")

	s := &TrackHistoryState{
		TrackHistoryID: first.ID,
		TimestampUtc:   time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
		SequenceNumber: 1,
		Altitude:       ip(3000),
	}
	require.NoError(t, r.SaveState(ctx, s))
	id := s.ID

	s.Altitude = ip(3500)
	s.TrackHistoryID = second.ID
	require.NoError(t, r.SaveState(ctx, s))
	assert.Equal(t, id, s.ID, "re-saving must update in place")

	left, err := r.GetStatesByTrackHistory(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, left)

	moved, err := r.GetStatesByTrackHistory(ctx, second)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, 3500, *moved[0].Altitude)
}

func TestStatesOrderedBySequenceNumber(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "ABC005")
	ts := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
			TrackHistoryID: h.ID, SequenceNumber: seq, TimestampUtc: ts,
		}))
	}

	got, err := r.GetStatesByTrackHistory(ctx, h)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, int64(i+1), s.SequenceNumber)
	}
}
