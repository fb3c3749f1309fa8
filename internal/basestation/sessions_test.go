package basestation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationAndSessionRoundTrip(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	loc := &Location{Name: "garden shed", Latitude: 51.5, Longitude: -0.12, Altitude: 42}
	require.NoError(t, r.InsertLocation(ctx, loc))
	require.NotZero(t, loc.ID)

	loc.Name = "roof"
	require.NoError(t, r.UpdateLocation(ctx, loc))

	locs, err := r.GetLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "roof", locs[0].Name)

	session := &Session{LocationID: loc.ID, StartTime: baseTime}
	require.NoError(t, r.InsertSession(ctx, session))
	require.NotZero(t, session.ID)

	end := baseTime.Add(2 * time.Hour)
	session.EndTime = &end
	require.NoError(t, r.UpdateSession(ctx, session))

	sessions, err := r.GetSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, loc.ID, sessions[0].LocationID)
	require.NotNil(t, sessions[0].EndTime)
	assert.WithinDuration(t, end, *sessions[0].EndTime, 0)
}

func TestDeleteLocationOrphansSession(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()

	loc := &Location{Name: "mast", Latitude: 1, Longitude: 2, Altitude: 3}
	require.NoError(t, r.InsertLocation(ctx, loc))
	session := &Session{LocationID: loc.ID, StartTime: baseTime}
	require.NoError(t, r.InsertSession(ctx, session))

	require.NoError(t, r.DeleteLocation(ctx, loc))

	sessions, err := r.GetSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1, "the session survives its location")
	assert.Zero(t, sessions[0].LocationID)
}

func TestDeleteSessionCascadesToFlights(t *testing.T) {
	r, _ := testRepo(t)
	ctx := context.Background()
	flights := seedFlights(t, r)

	session := &Session{ID: flights[0].SessionID}
	require.NoError(t, r.DeleteSession(ctx, session))

	n, err := r.GetCountOfFlights(ctx, &Criteria{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSystemEvents(t *testing.T) {
	r, clk := testRepo(t)
	ctx := context.Background()

	first := &SystemEvent{App: "tracker", Msg: "startup"}
	require.NoError(t, r.InsertSystemEvent(ctx, first))
	clk.Advance(time.Minute)
	second := &SystemEvent{App: "tracker", Msg: "shutdown"}
	require.NoError(t, r.InsertSystemEvent(ctx, second))

	events, err := r.GetSystemEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NoError(t, r.DeleteSystemEvent(ctx, first))
	events, err = r.GetSystemEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "shutdown", events[0].Msg)
}
