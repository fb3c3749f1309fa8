package basestation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircraft_db/internal/clock"
	"aircraft_db/internal/db"
	"aircraft_db/internal/standingdata"
)

func TestGetOrInsertAircraftByCode(t *testing.T) {
	clk := clock.NewManual(baseTime)
	blocks := &standingdata.CodeBlockTable{}
	blocks.Add(0x400000, 6, "United Kingdom", false)
	blocks.Add(0xADF7C8, 8, unknownCountry, false)
	r := New(&db.SQLiteAdapter{}, Options{
		Clock:         clk,
		CodeBlocks:    blocks,
		WritesEnabled: true,
	})
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()
	require.NoError(t, r.Initialize(ctx))

	a, created, err := r.GetOrInsertAircraftByCode(ctx, "400f01")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "400F01", a.ModeS, "codes are stored uppercased")
	assert.Equal(t, "United Kingdom", strval(a.ModeSCountry))

	again, created, err := r.GetOrInsertAircraftByCode(ctx, "400F01")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)

	// The unknown-country sentinel stores NULL, as does an unallocated code.
	sentinel, created, err := r.GetOrInsertAircraftByCode(ctx, "ADF7C8")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, sentinel.ModeSCountry)

	outside, created, err := r.GetOrInsertAircraftByCode(ctx, "E48001")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, outside.ModeSCountry)
}

func TestRecordMissingAircraft(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()

	require.NoError(t, r.RecordMissingAircraft(ctx, "7C1234"))
	first, err := r.GetAircraftByCode(ctx, "7C1234")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, missingMarker, strval(first.UserString1))
	assert.True(t, first.IsMissing())

	// A later sighting only advances LastModified.
	clk.Advance(time.Minute)
	require.NoError(t, r.RecordMissingAircraft(ctx, "7c1234"))

	second, err := r.GetAircraftByCode(ctx, "7C1234")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.WithinDuration(t, first.FirstCreated, second.FirstCreated, 0)
	assert.Equal(t, time.Minute, second.LastModified.Sub(first.LastModified))
}

func TestRecordMissingAircraftKeepsIdentifyingData(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()

	// The row gained a registration since it was marked missing; another
	// sighting must not touch it, and the record no longer counts as
	// missing whatever the sentinel says.
	require.NoError(t, r.InsertAircraft(ctx, &Aircraft{
		ModeS:        "7C5678",
		Registration: strptr("VH-XYZ"),
		UserString1:  strptr(missingMarker),
	}))

	clk.Advance(time.Minute)
	require.NoError(t, r.RecordMissingAircraft(ctx, "7C5678"))

	got, err := r.GetAircraftByCode(ctx, "7C5678")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "VH-XYZ", strval(got.Registration))
	assert.False(t, got.IsMissing())
}

func TestUpsertLookupInsertDoesNotNotify(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	var notified []*Aircraft
	r.OnAircraftUpdated = func(a *Aircraft) { notified = append(notified, a) }

	a, err := r.UpsertAircraftLookup(ctx, &AircraftLookup{
		ModeS:        "406abc",
		Registration: strptr("G-EZTH"),
		Operator:     strptr("easyJet"),
	}, false)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "406ABC", a.ModeS)
	assert.Empty(t, notified, "pure inserts never notify")

	// The same lookup again is an update and notifies exactly once.
	a, err = r.UpsertAircraftLookup(ctx, &AircraftLookup{
		ModeS:        "406ABC",
		Registration: strptr("G-EZTH"),
		Operator:     strptr("easyJet Europe"),
	}, false)
	require.NoError(t, err)
	require.Len(t, notified, 1)
	assert.Equal(t, a.ID, notified[0].ID)
	assert.Equal(t, "easyJet Europe", strval(notified[0].RegisteredOwners))
}

func TestRolledBackUpsertDoesNotNotify(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	_, err := r.UpsertAircraftLookup(ctx, &AircraftLookup{
		ModeS:        "406abc",
		Registration: strptr("G-EZTH"),
	}, false)
	require.NoError(t, err)

	var notified []*Aircraft
	r.OnAircraftUpdated = func(a *Aircraft) { notified = append(notified, a) }

	// An update inside an abandoned transaction is undone, so its
	// notification must never surface.
	err = r.PerformInTransaction(ctx, func() bool {
		_, uerr := r.UpsertAircraftLookup(ctx, &AircraftLookup{
			ModeS:        "406ABC",
			Registration: strptr("G-EZTJ"),
		}, false)
		require.NoError(t, uerr)
		return false
	})
	require.NoError(t, err)
	assert.Empty(t, notified)

	got, err := r.GetAircraftByCode(ctx, "406ABC")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "G-EZTH", strval(got.Registration))

	// The committed variant delivers the notification, after the commit.
	err = r.PerformInTransaction(ctx, func() bool {
		_, uerr := r.UpsertAircraftLookup(ctx, &AircraftLookup{
			ModeS:        "406ABC",
			Registration: strptr("G-EZTJ"),
		}, false)
		require.NoError(t, uerr)
		require.Empty(t, notified, "delivery waits for the commit")
		return true
	})
	require.NoError(t, err)
	require.Len(t, notified, 1)
	assert.Equal(t, "G-EZTJ", strval(notified[0].Registration))
}

func TestUpsertLookupOnlyIfMissing(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	var notifications int
	r.OnAircraftUpdated = func(*Aircraft) { notifications++ }

	require.NoError(t, r.InsertAircraft(ctx, &Aircraft{
		ModeS:        "484141",
		Registration: strptr("PH-BXA"),
	}))
	require.NoError(t, r.RecordMissingAircraft(ctx, "484143"))
	notifications = 0

	got, err := r.UpsertManyAircraftLookup(ctx, []*AircraftLookup{
		{ModeS: "484141", Registration: strptr("CLOBBERED")},
		{ModeS: "484143", Registration: strptr("PH-BXC")},
	}, true)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The populated row is untouched; the missing marker row is filled in.
	kept, err := r.GetAircraftByCode(ctx, "484141")
	require.NoError(t, err)
	assert.Equal(t, "PH-BXA", strval(kept.Registration))

	filled, err := r.GetAircraftByCode(ctx, "484143")
	require.NoError(t, err)
	assert.Equal(t, "PH-BXC", strval(filled.Registration))
	assert.False(t, filled.IsMissing())

	assert.Equal(t, 1, notifications, "only the actually-updated row notifies")
}

func TestGetManyAircraftByCodeChunks(t *testing.T) {
	clk := clock.NewManual(baseTime)
	// A two-parameter ceiling forces the lookup through multiple chunks.
	r := New(&db.SQLiteAdapter{MaxParams: 2}, Options{Clock: clk, WritesEnabled: true})
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()
	require.NoError(t, r.Initialize(ctx))

	codes := []string{"A00001", "A00002", "A00003", "A00004", "A00005"}
	for _, code := range codes[:4] { // A00005 stays absent
		require.NoError(t, r.InsertAircraft(ctx, &Aircraft{ModeS: code}))
	}

	got, err := r.GetManyAircraftByCode(ctx, []string{"a00001", "A00002", "A00003", "A00004", "A00005", "A00001"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, code := range codes[:4] {
		one, err := r.GetAircraftByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, got[code], "chunked lookup missed %s", code)
		assert.Equal(t, one.ID, got[code].ID, "chunked lookup disagrees with single lookup for %s", code)
	}
	assert.NotContains(t, got, "A00005")
}

func TestGetManyAircraftAndFlightsCount(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	seedFlights(t, r)

	got, err := r.GetManyAircraftAndFlightsCountByCode(ctx, []string{"400001", "7C0002", "FFFFFF"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got["400001"].FlightsCount)
	assert.Equal(t, 1, got["7C0002"].FlightsCount)

	empty, err := r.GetManyAircraftAndFlightsCountByCode(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpsertManyAircraftPreservesIdentity(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()

	original := &Aircraft{ModeS: "3C6444", Registration: strptr("D-ABYA")}
	require.NoError(t, r.InsertAircraft(ctx, original))

	clk.Advance(time.Hour)
	stored, err := r.UpsertManyAircraft(ctx, []*Aircraft{
		{ModeS: "3C6444", Registration: strptr("D-ABYB")},
		{ModeS: "3C6445", Registration: strptr("D-ABYC")},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	updated := stored[0]
	assert.Equal(t, original.ID, updated.ID, "upsert must keep the surrogate key")
	assert.WithinDuration(t, original.FirstCreated, updated.FirstCreated, time.Second)
	assert.Equal(t, "D-ABYB", strval(updated.Registration))

	inserted := stored[1]
	assert.NotZero(t, inserted.ID)
	assert.WithinDuration(t, clk.Now(), inserted.FirstCreated, time.Second)
}

func TestDeleteAircraftCascadesToFlights(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	seedFlights(t, r)

	a, err := r.GetAircraftByCode(ctx, "400001")
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NoError(t, r.DeleteAircraft(ctx, a))

	n, err := r.GetCountOfFlights(ctx, &Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
