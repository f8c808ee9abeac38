package surety

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type state struct {
	guard    *guard
	vault    *vault
	airlines *airlineRegistry
	flights  *flightRegistry
	pool     *insurancePool
	oracles  *oracleConsensus
}

// Engine is the single ordering authority over all surety state.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
	st  *state
	seq uint64

	src IndexSource
	bus *Bus
	// pending holds committed events in Seq order until they are delivered.
	pubMu    sync.Mutex
	pending  []models.Event
	draining bool

	log logrus.FieldLogger
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndexSource sets the pseudo-random source for oracle indexes.
func WithIndexSource(src IndexSource) Option {
	return func(e *Engine) { e.src = src }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock sets the clock used to stamp events and transfers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine in its genesis state: the owner is a registered,
// funded airline and the vault holds the genesis funding.
func New(cfg Config, genesis Genesis, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if err := genesis.validate(); err != nil {
		return nil, err
	}
	if genesis.AppID == "" {
		genesis.AppID = DefaultAppID
	}

	e := &Engine{
		cfg: cfg,
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		e.src = NewSeededSource(time.Now().UnixNano())
	}
	e.log = e.log.WithField("component", "surety")
	e.bus = NewBus(cfg.HistorySize, e.log)

	e.st = &state{
		guard:    newGuard(genesis.Owner, genesis.AppID),
		vault:    newVault(cfg.HistorySize),
		airlines: newAirlineRegistry(),
		flights:  newFlightRegistry(),
		pool:     newInsurancePool(),
		oracles:  newOracleConsensus(),
	}
	e.st.airlines.seed(genesis.Owner, genesis.OwnerName, genesis.InitialFunding)
	if genesis.InitialFunding > 0 {
		c := &change{}
		c.deposit(genesis.Owner, genesis.InitialFunding, "genesis")
		e.st.vault.apply(c, e.now())
	}

	e.log.WithFields(logrus.Fields{
		"owner":   genesis.Owner,
		"app":     genesis.AppID,
		"funding": models.FormatUnits(genesis.InitialFunding),
	}).Info("engine created")
	return e, nil
}

// Config returns the engine's rule constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// run applies one operation. plan must only read state and stage its writes
// on the change; nothing is applied unless plan and the vault check pass.
func (e *Engine) run(op, caller string, gated bool, plan func(st *state, c *change) error) error {
	events, err := e.commit(op, caller, gated, plan)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(events) > 0 {
		e.drain()
	}
	return nil
}

// drain delivers pending events in Seq order. Only one goroutine drains at
// a time; events committed meanwhile, including by handlers calling back
// into the engine, are picked up by the running drainer.
func (e *Engine) drain() {
	e.pubMu.Lock()
	if e.draining {
		e.pubMu.Unlock()
		return
	}
	e.draining = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.pubMu.Unlock()
		e.bus.publish(batch)
		e.pubMu.Lock()
	}
	e.draining = false
	e.pubMu.Unlock()
}

func (e *Engine) commit(op, caller string, gated bool, plan func(st *state, c *change) error) ([]models.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.log.WithFields(logrus.Fields{"op": op, "caller": caller})
	if caller == "" {
		return nil, fmt.Errorf("%w: caller identity is required", ErrAccessDenied)
	}
	if gated {
		if err := e.st.guard.requireOperational(); err != nil {
			return nil, err
		}
	}

	c := &change{}
	if err := plan(e.st, c); err != nil {
		log.WithError(err).Debug("operation rejected")
		return nil, err
	}
	if err := e.st.vault.admit(c, e.st.guard, e.st.guard.app); err != nil {
		if errors.Is(err, ErrInvariantViolated) {
			log.WithError(err).Error("operation aborted")
		}
		return nil, err
	}

	now := e.now()
	for _, f := range c.effects {
		f()
	}
	e.st.vault.apply(c, now)

	for i := range c.events {
		e.seq++
		c.events[i].ID = uuid.NewString()
		c.events[i].Seq = e.seq
		c.events[i].CreatedAt = now
	}
	if len(c.events) > 0 {
		e.pubMu.Lock()
		e.pending = append(e.pending, c.events...)
		e.pubMu.Unlock()
	}
	log.WithField("events", len(c.events)).Debug("operation applied")
	return c.events, nil
}

// Subscribe delivers every matching event committed from now on.
func (e *Engine) Subscribe(filter Filter, h Handler) func() {
	return e.bus.Subscribe(filter, h)
}

// SubscribeOnce delivers the next matching event only.
func (e *Engine) SubscribeOnce(filter Filter, h Handler) func() {
	return e.bus.SubscribeOnce(filter, h)
}

// RecentEvents returns up to n of the latest events, oldest first.
func (e *Engine) RecentEvents(n int) []models.Event {
	return e.bus.Recent(n)
}

// SetOperational toggles the operational flag. Owner only.
func (e *Engine) SetOperational(caller string, value bool) error {
	return e.run("set operational", caller, false, func(st *state, c *change) error {
		return st.guard.planSetOperational(c, caller, value)
	})
}

// Authorize adds id to the allow-list. Owner only.
func (e *Engine) Authorize(caller, id string) error {
	return e.run("authorize", caller, false, func(st *state, c *change) error {
		return st.guard.planAuthorize(c, caller, id)
	})
}

// Revoke removes id from the allow-list. Owner only.
func (e *Engine) Revoke(caller, id string) error {
	return e.run("revoke", caller, false, func(st *state, c *change) error {
		return st.guard.planRevoke(c, caller, id)
	})
}

// Deposit tops up the vault. Authorized identities only.
func (e *Engine) Deposit(caller string, value int64) error {
	return e.run("deposit", caller, true, func(st *state, c *change) error {
		return st.vault.planDeposit(c, st.guard, caller, value)
	})
}

// RegisterAirline admits candidate directly or records caller's vote for it.
func (e *Engine) RegisterAirline(caller, candidateID, name string) (models.Admission, error) {
	var admission models.Admission
	err := e.run("register airline", caller, true, func(st *state, c *change) error {
		var err error
		admission, err = st.airlines.planRegister(c, e.cfg, caller, candidateID, name)
		return err
	})
	if err != nil {
		return models.Admission{}, err
	}
	e.log.WithFields(logrus.Fields{
		"candidate": candidateID,
		"voter":     caller,
		"admitted":  admission.Admitted,
		"votes":     admission.Votes,
		"required":  admission.RequiredVotes,
	}).Info("airline registration")
	return admission, nil
}

// FundAirline deposits value for the calling airline and marks it funded.
func (e *Engine) FundAirline(caller string, value int64) error {
	return e.run("fund airline", caller, true, func(st *state, c *change) error {
		return st.airlines.planFund(c, e.cfg, caller, value)
	})
}

// RegisterFlight records a flight operated by the calling airline.
func (e *Engine) RegisterFlight(caller, flightID string, timestamp int64) (models.Flight, error) {
	var flight models.Flight
	err := e.run("register flight", caller, true, func(st *state, c *change) error {
		var err error
		flight, err = st.flights.planRegister(c, st.airlines, caller, flightID, timestamp)
		return err
	})
	return flight, err
}

// BuyInsurance sells passenger a policy of value on the flight.
func (e *Engine) BuyInsurance(passenger, flightID string, value int64) (models.InsurancePolicy, error) {
	var policy models.InsurancePolicy
	err := e.run("buy insurance", passenger, true, func(st *state, c *change) error {
		var err error
		policy, err = st.pool.planBuy(c, e.cfg, st.vault, st.flights, passenger, flightID, value)
		return err
	})
	return policy, err
}

// Withdraw pays out the passenger's pending payout on the flight. A zero
// payout succeeds without moving value.
func (e *Engine) Withdraw(passenger, flightID string) (int64, error) {
	var paid int64
	err := e.run("withdraw", passenger, true, func(st *state, c *change) error {
		var err error
		paid, err = st.pool.planWithdraw(c, passenger, flightID)
		return err
	})
	return paid, err
}

// RegisterOracle bonds the caller as an oracle and returns its indexes.
func (e *Engine) RegisterOracle(caller string, bond int64) ([]int, error) {
	var indexes []int
	err := e.run("register oracle", caller, true, func(st *state, c *change) error {
		var err error
		indexes, err = st.oracles.planRegister(c, e.cfg, e.src, caller, bond)
		return err
	})
	return indexes, err
}

// FetchFlightStatus opens an oracle request for the flight and publishes
// OracleRequest.
func (e *Engine) FetchFlightStatus(caller, airline, flightID string, timestamp int64) (models.OracleRequestKey, error) {
	var key models.OracleRequestKey
	err := e.run("fetch flight status", caller, true, func(st *state, c *change) error {
		var err error
		key, err = st.oracles.planFetch(c, e.cfg, e.src, st.flights, caller, airline, flightID, timestamp)
		return err
	})
	return key, err
}

// SubmitOracleResponse records an oracle's status for a request. The
// MinResponses-th identical terminal status finalizes the request, settles
// the flight and credits insurees when the airline is at fault.
func (e *Engine) SubmitOracleResponse(oracleID string, key models.OracleRequestKey, status models.StatusCode) (models.ResponseOutcome, error) {
	var outcome models.ResponseOutcome
	err := e.run("submit oracle response", oracleID, true, func(st *state, c *change) error {
		var err error
		outcome, err = st.oracles.planSubmit(c, e.cfg, st.flights, st.pool, oracleID, key, status)
		return err
	})
	if err != nil {
		return models.ResponseOutcome{}, err
	}
	if outcome.Finalized {
		e.log.WithFields(logrus.Fields{
			"flight":  key.FlightID,
			"index":   key.Index,
			"status":  status.String(),
			"oracles": outcome.Count,
		}).Info("oracle request finalized")
	}
	return outcome, nil
}

// IsOperational reports the operational flag.
func (e *Engine) IsOperational() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.guard.operational
}

// IsAuthorized reports whether id is on the allow-list.
func (e *Engine) IsAuthorized(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.guard.isAuthorized(id)
}

// Owner returns the owner identity.
func (e *Engine) Owner() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.guard.owner
}

// RegistrationFee returns the minimum oracle bond.
func (e *Engine) RegistrationFee() int64 {
	return e.cfg.RegistrationFee
}

// VaultBalance returns the value custodied by the vault.
func (e *Engine) VaultBalance() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.vault.balance
}

// Liabilities returns the sum of pending payouts.
func (e *Engine) Liabilities() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.vault.liabilities
}

// Reserved returns the payouts held back for policies on unsettled flights.
func (e *Engine) Reserved() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.vault.exposure
}

// VaultTransfers returns up to n of the latest vault movements, oldest first.
func (e *Engine) VaultTransfers(n int) []models.VaultTransfer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.vault.recent(n)
}

func (e *Engine) IsAirline(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.airlines.isAirline(id)
}

func (e *Engine) GetAirline(id string) (models.Airline, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.airlines.get(id)
}

func (e *Engine) ListAirlines() []models.Airline {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.airlines.list()
}

func (e *Engine) GetEnqueuedAirline(candidateID string) (models.PendingApplication, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.airlines.application(candidateID)
}

// RegisteredCount returns the number of airlines admitted through
// RegisterAirline.
func (e *Engine) RegisteredCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.airlines.admitted
}

func (e *Engine) GetFlight(flightID string) (models.Flight, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.flights.get(flightID)
}

func (e *Engine) ListFlights() []models.Flight {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.flights.list()
}

func (e *Engine) GetInsurance(flightID, passenger string) (models.InsurancePolicy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.pool.get(flightID, passenger)
}

// OracleIndexes returns the indexes assigned to an oracle.
func (e *Engine) OracleIndexes(oracleID string) ([]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.oracles.indexes(oracleID)
}

func (e *Engine) GetOracleRequest(key models.OracleRequestKey) (models.OracleRequest, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.oracles.request(key)
}
