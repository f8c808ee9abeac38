package surety

import (
	"testing"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlight(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	f, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)
	assert.Equal(t, owner, f.Airline)
	assert.Equal(t, models.StatusUnknown, f.StatusCode)
	assert.Equal(t, departure, f.Timestamp)
	assert.Equal(t, "Unknown", f.Status)

	_, err = e.RegisterFlight(owner, flightID, departure)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = e.RegisterFlight(owner, "", departure)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := e.GetFlight(flightID)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = e.GetFlight("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterFlight_RequiresFundedAirline(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterAirline(owner, "airline-B", "Airline B")
	require.NoError(t, err)

	_, err = e.RegisterFlight("airline-B", "B100", departure)
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = e.RegisterFlight(passenger, "P100", departure)
	require.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, e.FundAirline("airline-B", models.Units(10)))
	_, err = e.RegisterFlight("airline-B", "B100", departure)
	require.NoError(t, err)
}

func TestListFlights(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	assert.Empty(t, e.ListFlights())

	for _, id := range []string{"ND1309", "ND1310", "ND1311"} {
		_, err := e.RegisterFlight(owner, id, departure)
		require.NoError(t, err)
	}

	flights := e.ListFlights()
	require.Len(t, flights, 3)
	assert.Equal(t, "ND1309", flights[0].ID)
	assert.Equal(t, "ND1311", flights[2].ID)
}
