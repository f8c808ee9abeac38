package surety

import (
	"testing"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyInsurance(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	tests := []struct {
		name      string
		passenger string
		flightID  string
		value     int64
		wantErr   error
	}{
		{name: "unknown flight", passenger: passenger, flightID: "missing", value: models.Units(1), wantErr: ErrNotFound},
		{name: "zero value", passenger: passenger, flightID: flightID, value: 0, wantErr: ErrInvalidAmount},
		{name: "negative value", passenger: passenger, flightID: flightID, value: -1, wantErr: ErrInvalidAmount},
		{name: "over the cap", passenger: passenger, flightID: flightID, value: models.Units(1) + 1, wantErr: ErrInvalidAmount},
		{name: "smallest value", passenger: "passenger-Q", flightID: flightID, value: 1},
		{name: "at the cap", passenger: passenger, flightID: flightID, value: models.Units(1)},
		{name: "second purchase", passenger: passenger, flightID: flightID, value: models.Units(1) / 2, wantErr: ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.VaultBalance()
			policy, err := e.BuyInsurance(tt.passenger, tt.flightID, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, e.VaultBalance())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, policy.AmountPaid)
			assert.Zero(t, policy.PendingPayout)
			assert.Equal(t, before+tt.value, e.VaultBalance())
		})
	}

	policy, err := e.GetInsurance(flightID, passenger)
	require.NoError(t, err)
	assert.Equal(t, models.Units(1), policy.AmountPaid)
}

func TestWithdraw_NoPolicy(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	_, err = e.Withdraw(passenger, flightID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithdraw_NothingPendingIsNoop(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)
	_, err = e.BuyInsurance(passenger, flightID, models.Units(1))
	require.NoError(t, err)
	before := e.VaultBalance()

	paid, err := e.Withdraw(passenger, flightID)
	require.NoError(t, err)
	assert.Zero(t, paid)
	assert.Equal(t, before, e.VaultBalance())
}

func TestPayout(t *testing.T) {
	m := decimal.RequireFromString("1.5")

	assert.Equal(t, models.Units(1)*3/2, payout(models.Units(1), m))
	assert.Equal(t, int64(3), payout(2, m))
	// Fractions of a minor unit are dropped.
	assert.Equal(t, int64(1), payout(1, m))
	assert.Equal(t, int64(4), payout(3, m))
}
