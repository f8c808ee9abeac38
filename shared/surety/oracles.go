package surety

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
)

type oracleConsensus struct {
	oracles  map[string]*models.OracleRegistration
	requests map[models.OracleRequestKey]*models.OracleRequest
}

func newOracleConsensus() *oracleConsensus {
	return &oracleConsensus{
		oracles:  make(map[string]*models.OracleRegistration),
		requests: make(map[models.OracleRequestKey]*models.OracleRequest),
	}
}

func (o *oracleConsensus) planRegister(c *change, cfg Config, src IndexSource, caller string, bond int64) ([]int, error) {
	if bond < cfg.RegistrationFee {
		return nil, fmt.Errorf("%w: bond of %s is below the %s registration fee",
			ErrInsufficientFunds, models.FormatUnits(bond), models.FormatUnits(cfg.RegistrationFee))
	}
	if _, ok := o.oracles[caller]; ok {
		return nil, fmt.Errorf("%w: oracle %q", ErrAlreadyExists, caller)
	}

	reg := &models.OracleRegistration{
		ID:      caller,
		Indexes: drawIndexes(src, cfg.IndexesPerOracle, cfg.IndexRange),
	}
	c.deposit(caller, bond, "oracle bond")
	c.do(func() { o.oracles[caller] = reg })
	return append([]int(nil), reg.Indexes...), nil
}

func (o *oracleConsensus) indexes(oracleID string) ([]int, error) {
	reg, ok := o.oracles[oracleID]
	if !ok {
		return nil, fmt.Errorf("%w: oracle %q", ErrNotFound, oracleID)
	}
	return append([]int(nil), reg.Indexes...), nil
}

// planFetch opens a request for the flight, reusing one that is still open
// under the same key.
func (o *oracleConsensus) planFetch(c *change, cfg Config, src IndexSource, flights *flightRegistry, caller, airline, flightID string, timestamp int64) (models.OracleRequestKey, error) {
	f, err := flights.require(flightID)
	if err != nil {
		return models.OracleRequestKey{}, err
	}
	if f.Airline != airline {
		return models.OracleRequestKey{}, fmt.Errorf("%w: flight %q is not operated by %q", ErrNotFound, flightID, airline)
	}

	key := models.OracleRequestKey{
		Index:     src.Intn(cfg.IndexRange),
		Airline:   airline,
		FlightID:  flightID,
		Timestamp: timestamp,
	}
	if req, ok := o.requests[key]; !ok || req.Finalized {
		fresh := &models.OracleRequest{
			OracleRequestKey: key,
			Requester:        caller,
			Responses:        make(map[models.StatusCode][]string),
		}
		c.do(func() { o.requests[key] = fresh })
	}
	c.emit(models.Event{
		Type:            models.EventOracleRequest,
		Index:           key.Index,
		Airline:         airline,
		FlightID:        flightID,
		FlightTimestamp: timestamp,
	})
	return key, nil
}

func (o *oracleConsensus) planSubmit(c *change, cfg Config, flights *flightRegistry, pool *insurancePool,
	oracleID string, key models.OracleRequestKey, status models.StatusCode) (models.ResponseOutcome, error) {
	reg, ok := o.oracles[oracleID]
	if !ok || !reg.HasIndex(key.Index) {
		return models.ResponseOutcome{}, fmt.Errorf("%w: oracle %q does not hold index %d", ErrAccessDenied, oracleID, key.Index)
	}
	if !status.Valid() {
		return models.ResponseOutcome{}, fmt.Errorf("%w: status code %d", ErrInvalidArgument, uint8(status))
	}
	req, ok := o.requests[key]
	if !ok || (req.Finalized && cfg.RejectLateResponses) {
		return models.ResponseOutcome{}, fmt.Errorf("%w: no open request %s", ErrNotFound, key)
	}
	if req.Responded(oracleID) {
		return models.ResponseOutcome{}, fmt.Errorf("%w: oracle %q already responded to %s", ErrAlreadyExists, oracleID, key)
	}

	count := len(req.Responses[status]) + 1
	outcome := models.ResponseOutcome{Accepted: true, Status: status, Count: count}
	c.do(func() { req.Responses[status] = append(req.Responses[status], oracleID) })
	c.emit(models.Event{
		Type:            models.EventOracleReport,
		Index:           key.Index,
		Airline:         key.Airline,
		FlightID:        key.FlightID,
		FlightTimestamp: key.Timestamp,
		StatusCode:      status,
		OracleID:        oracleID,
	})

	if req.Finalized || !status.Terminal() || count < cfg.MinResponses {
		return outcome, nil
	}

	outcome.Finalized = true
	c.do(func() {
		req.Finalized = true
		req.FinalStatus = status
	})

	f, err := flights.require(key.FlightID)
	if err != nil {
		return models.ResponseOutcome{}, err
	}
	if f.Settled() {
		// An earlier request already settled the flight.
		return outcome, nil
	}

	flights.stageSettle(c, f, status, key.Timestamp)
	c.emit(models.Event{
		Type:            models.EventFlightStatusInfo,
		Airline:         key.Airline,
		FlightID:        key.FlightID,
		FlightTimestamp: key.Timestamp,
		StatusCode:      status,
	})
	if status == models.StatusLateAirline {
		pool.planCredit(c, cfg.PayoutMultiplier, key.FlightID)
	} else {
		pool.planRelease(c, cfg.PayoutMultiplier, key.FlightID)
	}
	return outcome, nil
}

func (o *oracleConsensus) request(key models.OracleRequestKey) (models.OracleRequest, error) {
	req, ok := o.requests[key]
	if !ok {
		return models.OracleRequest{}, fmt.Errorf("%w: request %s", ErrNotFound, key)
	}
	cp := *req
	cp.Responses = make(map[models.StatusCode][]string, len(req.Responses))
	for s, ids := range req.Responses {
		cp.Responses[s] = append([]string(nil), ids...)
	}
	return cp, nil
}
