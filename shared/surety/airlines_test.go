package surety

import (
	"testing"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAirline_RequiresFundedCaller(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	_, err := e.RegisterAirline(owner, "airline-B", "Airline B")
	require.NoError(t, err)

	// B is registered but not funded yet.
	_, err = e.RegisterAirline("airline-B", "airline-C", "Airline C")
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.False(t, e.IsAirline("airline-C"))

	_, err = e.RegisterAirline("nobody", "airline-C", "Airline C")
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestRegisterAirline_DirectAdmission(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	admission, err := e.RegisterAirline(owner, "airline-B", "Airline B")
	require.NoError(t, err)
	assert.True(t, admission.Admitted)

	a, err := e.GetAirline("airline-B")
	require.NoError(t, err)
	assert.True(t, a.IsRegistered)
	assert.False(t, a.IsFunded)
	assert.Equal(t, "Airline B", a.Name)
	assert.True(t, e.IsAirline("airline-B"))
	assert.Equal(t, 1, e.RegisteredCount())

	_, err = e.RegisterAirline(owner, "airline-B", "Airline B")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = e.RegisterAirline(owner, "", "nameless")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFundAirline(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterAirline(owner, "airline-B", "Airline B")
	require.NoError(t, err)
	before := e.VaultBalance()

	err = e.FundAirline("airline-B", models.Units(9))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	a, _ := e.GetAirline("airline-B")
	assert.False(t, a.IsFunded)
	assert.Equal(t, before, e.VaultBalance())

	require.NoError(t, e.FundAirline("airline-B", models.Units(10)))
	a, _ = e.GetAirline("airline-B")
	assert.True(t, a.IsFunded)
	assert.Equal(t, models.Units(10), a.Funds)
	assert.Equal(t, before+models.Units(10), e.VaultBalance())

	err = e.FundAirline("passenger", models.Units(10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterAirline_VoteQuorum(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	admitAndFund(t, e, "airline-B", "airline-C", "airline-D", "airline-E")
	require.Equal(t, 4, e.RegisteredCount())

	admission, err := e.RegisterAirline("airline-B", "airline-F", "Airline F")
	require.NoError(t, err)
	assert.False(t, admission.Admitted)
	assert.Equal(t, 1, admission.Votes)
	assert.Equal(t, 2, admission.RequiredVotes)
	assert.False(t, e.IsAirline("airline-F"))

	app, err := e.GetEnqueuedAirline("airline-F")
	require.NoError(t, err)
	assert.Equal(t, []string{"airline-B"}, app.Voters)
	assert.Equal(t, 2, app.RequiredVotes)
	assert.Equal(t, "Airline F", app.Name)

	_, err = e.RegisterAirline("airline-B", "airline-F", "Airline F")
	require.ErrorIs(t, err, ErrAlreadyVoted)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	admission, err = e.RegisterAirline("airline-C", "airline-F", "ignored")
	require.NoError(t, err)
	assert.True(t, admission.Admitted)
	assert.True(t, e.IsAirline("airline-F"))
	assert.Equal(t, 5, e.RegisteredCount())

	f, err := e.GetAirline("airline-F")
	require.NoError(t, err)
	assert.Equal(t, "Airline F", f.Name)
	assert.False(t, f.IsFunded)

	_, err = e.GetEnqueuedAirline("airline-F")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterAirline_RequiredVotesSnapshot(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	admitAndFund(t, e, "airline-B", "airline-C", "airline-D", "airline-E")

	_, err := e.RegisterAirline("airline-B", "airline-G", "Airline G")
	require.NoError(t, err)

	// Growing the registry to 6 airlines does not raise G's threshold.
	for _, voter := range []string{"airline-B", "airline-C"} {
		_, err := e.RegisterAirline(voter, "airline-F", "Airline F")
		require.NoError(t, err)
	}
	var admission models.Admission
	for _, voter := range []string{"airline-B", "airline-C", "airline-D"} {
		admission, err = e.RegisterAirline(voter, "airline-H", "Airline H")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, admission.RequiredVotes)
	require.Equal(t, 6, e.RegisteredCount())

	app, err := e.GetEnqueuedAirline("airline-G")
	require.NoError(t, err)
	assert.Equal(t, 2, app.RequiredVotes)

	admission, err = e.RegisterAirline("airline-D", "airline-G", "Airline G")
	require.NoError(t, err)
	assert.True(t, admission.Admitted)

	// A fresh application now needs ceil(7/2) votes.
	admission, err = e.RegisterAirline("airline-B", "airline-I", "Airline I")
	require.NoError(t, err)
	assert.Equal(t, 4, admission.RequiredVotes)
}

func TestListAirlines(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	admitAndFund(t, e, "airline-B")

	airlines := e.ListAirlines()
	require.Len(t, airlines, 2)
	assert.Equal(t, owner, airlines[0].ID)
	assert.Equal(t, "airline-B", airlines[1].ID)
}

func TestRegisteredAirlineEvent(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	admitAndFund(t, e, "airline-B", "airline-C", "airline-D", "airline-E")

	var events []models.Event
	e.Subscribe(Filter{Types: []models.EventType{models.EventRegisteredAirline}}, func(ev models.Event) {
		events = append(events, ev)
	})

	_, err := e.RegisterAirline("airline-B", "airline-F", "Airline F")
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = e.RegisterAirline("airline-C", "airline-F", "Airline F")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "airline-F", events[0].AirlineID)
}
