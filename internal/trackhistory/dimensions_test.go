package trackhistory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCountryIsCaseInsensitive(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	first, created, err := r.GetOrCreateCountry(ctx, "United Kingdom")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := r.GetOrCreateCountry(ctx, "UNITED KINGDOM")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "United Kingdom", second.Name, "the stored casing wins")
}

func TestGetOrCreateOperatorKeyedByIcaoAndName(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	ba, created, err := r.GetOrCreateOperator(ctx, "BAW", "British Airways")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := r.GetOrCreateOperator(ctx, "baw", "BRITISH AIRWAYS")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ba.ID, again.ID)

	// Same code under a different name is a different operator.
	other, created, err := r.GetOrCreateOperator(ctx, "BAW", "British Airways plc")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, ba.ID, other.ID)
}

func TestDeletingManufacturerNullsTypeLink(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	man, _, err := r.GetOrCreateManufacturer(ctx, "Airbus")
	require.NoError(t, err)
	mod, _, err := r.GetOrCreateModel(ctx, "A320-232")
	require.NoError(t, err)

	at, _, err := r.GetOrCreateAircraftType(ctx, "A320")
	require.NoError(t, err)
	at.ManufacturerID = &man.ID
	at.ModelID = &mod.ID
	require.NoError(t, r.SaveAircraftType(ctx, at))

	require.NoError(t, r.DeleteManufacturer(ctx, man))

	got, created, err := r.GetOrCreateAircraftType(ctx, "a320")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, at.ID, got.ID)
	assert.Nil(t, got.ManufacturerID, "deleting the manufacturer must null the link")
	require.NotNil(t, got.ModelID)
	assert.Equal(t, mod.ID, *got.ModelID)
}

func TestDeletingReceiverNullsStateLink(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "AE0001")

	rc, _, err := r.GetOrCreateReceiver(ctx, "rooftop antenna")
	require.NoError(t, err)

	s := &TrackHistoryState{
		TrackHistoryID: h.ID,
		TimestampUtc:   clk.Now(),
		SequenceNumber: 1,
		ReceiverID:     &rc.ID,
		Altitude:       ip(2500),
	}
	require.NoError(t, r.SaveState(ctx, s))

	require.NoError(t, r.DeleteReceiver(ctx, rc))

	got, err := r.GetStateByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ReceiverID)
	assert.Equal(t, 2500, *got.Altitude, "telemetry survives the receiver delete")
}

func TestDeleteAircraftCascades(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()
	h := seedHistory(t, r, "AE0002")

	require.NoError(t, r.SaveState(ctx, &TrackHistoryState{
		TrackHistoryID: h.ID, SequenceNumber: 1, TimestampUtc: clk.Now(),
	}))

	ac, err := r.GetAircraftByIcao(ctx, "ae0002")
	require.NoError(t, err)
	require.NotNil(t, ac)
	require.NoError(t, r.DeleteAircraft(ctx, ac))

	gone, err := r.GetTrackHistoryByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	states, err := r.GetStatesByTrackHistory(ctx, h)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestDeleteAbsentDimensionIsNoOp(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	assert.NoError(t, r.DeleteCountry(ctx, nil))
	assert.NoError(t, r.DeleteCountry(ctx, &Country{}))
	assert.NoError(t, r.DeleteCountry(ctx, &Country{ID: 9999}))
}
