package trackhistory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraft_db/internal/clock"
	"aircraft_db/internal/db"
)

func TestTruncateMergesLaterStates(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "7C6DB8")

	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	states := []*TrackHistoryState{
		{SequenceNumber: 1, TimestampUtc: base, Callsign: sp("QFA1"), Altitude: ip(1000), Latitude: fp(-33.9)},
		{SequenceNumber: 2, TimestampUtc: base.Add(10 * time.Second), Altitude: ip(2000), GroundSpeed: fp(210)},
		{SequenceNumber: 3, TimestampUtc: base.Add(20 * time.Second), Latitude: fp(-33.7), Longitude: fp(151.2)},
		{SequenceNumber: 4, TimestampUtc: base.Add(30 * time.Second), Altitude: ip(4000), Squawk: ip(3664)},
		{SequenceNumber: 5, TimestampUtc: base.Add(40 * time.Second), Callsign: sp("QFA1X")},
	}
	for _, s := range states {
		s.TrackHistoryID = h.ID
		clk.Advance(time.Second)
		require.NoError(t, r.SaveState(ctx, s))
	}
	replacedIDs := map[int64]bool{}
	for _, s := range states[1:] {
		replacedIDs[s.ID] = true
	}

	result, err := r.Truncate(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CountHistories)
	assert.Equal(t, 4, result.CountStates)
	assert.WithinDuration(t, states[1].CreatedUtc, result.EarliestUtc, 0)
	assert.WithinDuration(t, states[4].CreatedUtc, result.LatestUtc, 0)

	got, err := r.GetStatesByTrackHistory(ctx, h)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The first state survives untouched.
	first := got[0]
	assert.Equal(t, states[0].ID, first.ID)
	assert.Equal(t, int64(1), first.SequenceNumber)
	assert.Equal(t, "QFA1", *first.Callsign)
	assert.Equal(t, 1000, *first.Altitude)

	// Everything later collapses into one row: later non-null values win
	// and null never erases an earlier value.
	merged := got[1]
	assert.False(t, replacedIDs[merged.ID], "merged row must get a fresh identifier")
	assert.Equal(t, int64(5), merged.SequenceNumber)
	assert.WithinDuration(t, states[4].TimestampUtc, merged.TimestampUtc, 0)
	assert.Equal(t, "QFA1X", *merged.Callsign)
	assert.Equal(t, 4000, *merged.Altitude)
	assert.Equal(t, -33.7, *merged.Latitude)
	assert.Equal(t, 151.2, *merged.Longitude)
	assert.Equal(t, 210.0, *merged.GroundSpeed)
	assert.Equal(t, 3664, *merged.Squawk)
}

func TestTruncateFollowsSequenceNotTimestamp(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "7C6DB9")

	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	// Timestamps run backwards; sequence numbers are the ordering key.
	require.NoError(t, r.SaveStates(ctx, []*TrackHistoryState{
		{TrackHistoryID: h.ID, SequenceNumber: 1, TimestampUtc: base.Add(time.Hour), Altitude: ip(5000)},
		{TrackHistoryID: h.ID, SequenceNumber: 2, TimestampUtc: base.Add(30 * time.Minute), Altitude: ip(6000)},
		{TrackHistoryID: h.ID, SequenceNumber: 3, TimestampUtc: base, Altitude: ip(7000)},
	}))

	_, err := r.Truncate(ctx, h)
	require.NoError(t, err)

	got, err := r.GetStatesByTrackHistory(ctx, h)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[1].SequenceNumber)
	assert.Equal(t, 7000, *got[1].Altitude)
	assert.WithinDuration(t, base, got[1].TimestampUtc, 0)
}

func TestTruncateLeavesShortAndPreservedAlone(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	empty := seedHistory(t, r, "7C6DC0")
	result, err := r.Truncate(ctx, empty)
	require.NoError(t, err)
	assert.Zero(t, result)

	single := seedHistory(t, r, "7C6DC1")
	require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
		TrackHistoryID: single.ID, SequenceNumber: 1,
		TimestampUtc: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
	}))
	result, err = r.Truncate(ctx, single)
	require.NoError(t, err)
	assert.Zero(t, result)

	preserved := seedHistory(t, r, "7C6DC2")
	preserved.IsPreserved = true
	require.NoError(t, r.SaveTrackHistory(ctx, preserved))
	for seq := int64(1); seq <= 3; seq++ {
		require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
			TrackHistoryID: preserved.ID, SequenceNumber: seq,
			TimestampUtc: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
		}))
	}
	result, err = r.Truncate(ctx, preserved)
	require.NoError(t, err)
	assert.Zero(t, result)

	got, err := r.GetStatesByTrackHistory(ctx, preserved)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestTruncateExpiredHonoursThresholdAndPreservation(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()

	makeHistory := func(icao string, createdUtc time.Time, preserved bool) *TrackHistory {
		ac, _, err := r.GetOrCreateAircraftByIcao(ctx, icao)
		require.NoError(t, err)
		h := &TrackHistory{AircraftID: ac.ID, IsPreserved: preserved, CreatedUtc: createdUtc}
		require.NoError(t, r.SaveTrackHistory(ctx, h))
		for seq := int64(1); seq <= 3; seq++ {
			require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
				TrackHistoryID: h.ID, SequenceNumber: seq,
				TimestampUtc: createdUtc.Add(time.Duration(seq) * time.Second),
			}))
		}
		return h
	}

	now := clk.Now()
	old := makeHistory("A00001", now.Add(-48*time.Hour), false)
	oldPreserved := makeHistory("A00002", now.Add(-48*time.Hour), true)
	fresh := makeHistory("A00003", now.Add(-time.Hour), false)

	result, err := r.TruncateExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.CountHistories)
	assert.Equal(t, 2, result.CountStates)

	for h, want := range map[*TrackHistory]int{old: 2, oldPreserved: 3, fresh: 3} {
		got, err := r.GetStatesByTrackHistory(ctx, h)
		require.NoError(t, err)
		assert.Len(t, got, want)
	}
}

type archiveRecorder struct {
	histories []int64
	states    int
	err       error
}

func (a *archiveRecorder) ArchiveStates(_ context.Context, h *TrackHistory, states []*TrackHistoryState) error {
	if a.err != nil {
		return a.err
	}
	a.histories = append(a.histories, h.ID)
	a.states += len(states)
	return nil
}

func TestDeleteExpiredArchivesThenDeletes(t *testing.T) {
	clk := clock.NewManual(time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC))
	sink := &archiveRecorder{}
	r := New(&db.SQLiteAdapter{}, Options{Clock: clk, WritesEnabled: true, Archive: sink})
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()
	require.NoError(t, r.Initialize(ctx))

	ac, _, err := r.GetOrCreateAircraftByIcao(ctx, "C0FFEE")
	require.NoError(t, err)

	now := clk.Now()
	old := &TrackHistory{AircraftID: ac.ID, CreatedUtc: now.Add(-72 * time.Hour)}
	require.NoError(t, r.SaveTrackHistory(ctx, old))
	for seq := int64(1); seq <= 4; seq++ {
		require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
			TrackHistoryID: old.ID, SequenceNumber: seq,
			TimestampUtc: old.CreatedUtc.Add(time.Duration(seq) * time.Second),
		}))
	}
	fresh := &TrackHistory{AircraftID: ac.ID}
	require.NoError(t, r.SaveTrackHistory(ctx, fresh))

	result, err := r.DeleteExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.CountHistories)
	assert.Equal(t, 4, result.CountStates)
	assert.Equal(t, []int64{old.ID}, sink.histories)
	assert.Equal(t, 4, sink.states)

	gone, err := r.GetTrackHistoryByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := r.GetTrackHistoryByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestDeleteExpiredStopsOnArchiveFailure(t *testing.T) {
	clk := clock.NewManual(time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC))
	sink := &archiveRecorder{err: errSinkDown}
	r := New(&db.SQLiteAdapter{}, Options{Clock: clk, WritesEnabled: true, Archive: sink})
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()
	require.NoError(t, r.Initialize(ctx))

	h := func() *TrackHistory {
		ac, _, err := r.GetOrCreateAircraftByIcao(ctx, "DEAD01")
		require.NoError(t, err)
		h := &TrackHistory{AircraftID: ac.ID, CreatedUtc: clk.Now().Add(-72 * time.Hour)}
		require.NoError(t, r.SaveTrackHistory(ctx, h))
		require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
			TrackHistoryID: h.ID, SequenceNumber: 1, TimestampUtc: h.CreatedUtc,
		}))
		return h
	}()

	_, err := r.DeleteExpired(ctx, clk.Now())
	require.ErrorIs(t, err, errSinkDown)

	kept, err := r.GetTrackHistoryByID(ctx, h.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept, "history must survive when the archive sink fails")
}

var errSinkDown = errors.New("sink down")
