package surety

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner     = "airline-A"
	passenger = "passenger-P"
	flightID  = "flight"
	departure = int64(1700000000000)
)

// scriptedSource replays values in order, wrapping around.
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.pos%len(s.values)] % n
	s.pos++
	return v
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestEngine(t *testing.T, cfg Config, src IndexSource) *Engine {
	t.Helper()
	if src == nil {
		src = NewSeededSource(42)
	}
	e, err := New(cfg, Genesis{
		Owner:          owner,
		OwnerName:      "Airline A",
		InitialFunding: models.Units(10),
	},
		WithIndexSource(src),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
	require.NoError(t, err)
	return e
}

// admitAndFund registers and funds each id in turn, sponsored by the owner.
func admitAndFund(t *testing.T, e *Engine, ids ...string) {
	t.Helper()
	for _, id := range ids {
		admission, err := e.RegisterAirline(owner, id, "Airline "+id)
		require.NoError(t, err)
		require.True(t, admission.Admitted)
		require.NoError(t, e.FundAirline(id, e.Config().FundingThreshold))
	}
}

func TestNew_Genesis(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	assert.True(t, e.IsOperational())
	assert.True(t, e.IsAirline(owner))
	assert.True(t, e.IsAuthorized(owner))
	assert.True(t, e.IsAuthorized(DefaultAppID))
	assert.Equal(t, owner, e.Owner())
	assert.Equal(t, models.Units(10), e.VaultBalance())
	assert.Equal(t, int64(0), e.Liabilities())
	assert.Equal(t, 0, e.RegisteredCount())
	assert.Equal(t, models.Units(1), e.RegistrationFee())

	a, err := e.GetAirline(owner)
	require.NoError(t, err)
	assert.True(t, a.IsRegistered)
	assert.True(t, a.IsFunded)

	transfers := e.VaultTransfers(0)
	require.Len(t, transfers, 1)
	assert.Equal(t, "genesis", transfers[0].Reference)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(DefaultConfig(), Genesis{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg := DefaultConfig()
	cfg.IndexRange = 2
	_, err = New(cfg, Genesis{Owner: owner})
	assert.Error(t, err)
}

func TestEngine_CallerRequired(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	_, err := e.BuyInsurance("", flightID, models.Units(1))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestEngine_PurchasesBoundedByReservedPayouts(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), &scriptedSource{values: []int{1, 2, 3}})
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	// Each one-unit policy deposits 1 and reserves 1.5, so the 10-unit
	// genesis funding covers 20 of them.
	var insured []string
	for i := 0; i < 40; i++ {
		p := fmt.Sprintf("passenger-%02d", i)
		before := e.VaultBalance()
		_, err := e.BuyInsurance(p, flightID, models.Units(1))
		if i < 20 {
			require.NoError(t, err)
			insured = append(insured, p)
			continue
		}
		require.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, before, e.VaultBalance())
	}
	assert.Equal(t, models.Units(30), e.VaultBalance())
	assert.Equal(t, models.Units(30), e.Reserved())

	oracles := []string{"o1", "o2", "o3", "o4", "o5", "o6"}
	for _, o := range oracles {
		_, err := e.RegisterOracle(o, models.Units(1))
		require.NoError(t, err)
	}
	key, err := e.FetchFlightStatus(passenger, owner, flightID, departure)
	require.NoError(t, err)
	require.Equal(t, 1, key.Index)

	for i, o := range oracles[:3] {
		outcome, err := e.SubmitOracleResponse(o, key, models.StatusLateAirline)
		require.NoError(t, err)
		assert.Equal(t, i == 2, outcome.Finalized)
	}
	for _, o := range oracles[3:] {
		outcome, err := e.SubmitOracleResponse(o, key, models.StatusOnTime)
		require.NoError(t, err)
		assert.False(t, outcome.Finalized)
	}

	f, err := e.GetFlight(flightID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLateAirline, f.StatusCode)
	assert.Equal(t, models.Units(30), e.Liabilities())
	assert.Zero(t, e.Reserved())

	for _, p := range insured {
		paid, err := e.Withdraw(p, flightID)
		require.NoError(t, err)
		assert.Equal(t, models.Units(3)/2, paid)
	}
	assert.Zero(t, e.Liabilities())
	assert.Equal(t, models.Units(6), e.VaultBalance())
}

func TestEngine_SettlementReleasesReservation(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), &scriptedSource{values: []int{1, 2, 3}})
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)
	_, err = e.BuyInsurance(passenger, flightID, models.Units(1))
	require.NoError(t, err)
	assert.Equal(t, models.Units(3)/2, e.Reserved())

	oracles := []string{"o1", "o2", "o3"}
	for _, o := range oracles {
		_, err := e.RegisterOracle(o, models.Units(1))
		require.NoError(t, err)
	}
	key, err := e.FetchFlightStatus(passenger, owner, flightID, departure)
	require.NoError(t, err)
	for _, o := range oracles {
		_, err := e.SubmitOracleResponse(o, key, models.StatusOnTime)
		require.NoError(t, err)
	}

	assert.Zero(t, e.Reserved())
	assert.Zero(t, e.Liabilities())

	// Cover bought after settlement can never pay out.
	_, err = e.BuyInsurance("passenger-Q", flightID, models.Units(1))
	require.NoError(t, err)
	assert.Zero(t, e.Reserved())
}

func TestVault_AdmitRejectsUncoveredObligations(t *testing.T) {
	g := newGuard(owner, DefaultAppID)

	tests := []struct {
		name  string
		vault vault
		stage func(c *change)
	}{
		{
			name:  "liabilities above balance",
			vault: vault{balance: 10},
			stage: func(c *change) { c.owe(11) },
		},
		{
			name:  "reservation above headroom",
			vault: vault{balance: 10, liabilities: 4},
			stage: func(c *change) { c.reserve(7) },
		},
		{
			name:  "payout below zero",
			vault: vault{balance: 10},
			stage: func(c *change) { c.payout(passenger, 11, "payout") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &change{}
			tt.stage(c)
			err := tt.vault.admit(c, g, DefaultAppID)
			assert.ErrorIs(t, err, ErrInvariantViolated)
		})
	}

	c := &change{}
	c.reserve(6)
	assert.NoError(t, (&vault{balance: 10, liabilities: 4}).admit(c, g, DefaultAppID))
}

func TestEngine_ConcurrentPurchasesAreSerialized(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	const buyers = 20
	var wg sync.WaitGroup
	errs := make(chan error, buyers*2)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := "passenger-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			_, err := e.BuyInsurance(p, flightID, models.Units(1))
			errs <- err
			// A second purchase by the same passenger always loses.
			_, err = e.BuyInsurance(p, flightID, models.Units(1))
			if err == nil {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, models.Units(10)+models.Units(buyers), e.VaultBalance())
	assert.Len(t, e.VaultTransfers(0), buyers+1)
}

func TestEngine_EventsPublishedAfterCommit(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	var got []models.Event
	unsubscribe := e.Subscribe(Filter{Types: []models.EventType{models.EventRegisteredAirline}}, func(ev models.Event) {
		// Handlers may read engine state; the operation is already applied.
		assert.True(t, e.IsAirline(ev.AirlineID))
		got = append(got, ev)
	})
	admitAndFund(t, e, "airline-B")
	unsubscribe()
	admitAndFund(t, e, "airline-C")

	require.Len(t, got, 1)
	assert.Equal(t, "airline-B", got[0].AirlineID)
	assert.Equal(t, "Airline airline-B", got[0].Name)
	assert.NotEmpty(t, got[0].ID)

	recent := e.RecentEvents(0)
	require.Len(t, recent, 4)
	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i].Seq, recent[i-1].Seq)
	}
}

func TestEngine_RejectedOperationPublishesNothing(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	calls := 0
	e.Subscribe(Filter{}, func(models.Event) { calls++ })

	_, err := e.RegisterAirline("stranger", "airline-B", "B")
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, calls)
	assert.Empty(t, e.RecentEvents(0))
}

func TestEngine_ConcurrentEventsDeliveredInSeqOrder(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	var mu sync.Mutex
	var seqs []uint64
	e.Subscribe(Filter{Types: []models.EventType{models.EventOracleRequest}}, func(ev models.Event) {
		mu.Lock()
		seqs = append(seqs, ev.Seq)
		mu.Unlock()
	})

	const workers, calls = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				_, err := e.FetchFlightStatus(passenger, owner, flightID, departure)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seqs, workers*calls)
	for i := 1; i < len(seqs); i++ {
		require.Greater(t, seqs[i], seqs[i-1])
	}

	recent := e.RecentEvents(0)
	for i := 1; i < len(recent); i++ {
		require.Greater(t, recent[i].Seq, recent[i-1].Seq)
	}
}

func TestEngine_HandlerMayCallBackIntoEngine(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	_, err := e.RegisterFlight(owner, flightID, departure)
	require.NoError(t, err)

	var types []models.EventType
	e.Subscribe(Filter{}, func(ev models.Event) { types = append(types, ev.Type) })
	e.SubscribeOnce(Filter{Types: []models.EventType{models.EventRegisteredAirline}}, func(models.Event) {
		_, err := e.FetchFlightStatus(owner, owner, flightID, departure)
		assert.NoError(t, err)
	})

	_, err = e.RegisterAirline(owner, "airline-B", "Airline B")
	require.NoError(t, err)

	assert.Equal(t, []models.EventType{models.EventRegisteredAirline, models.EventOracleRequest}, types)
}
