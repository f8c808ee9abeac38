package service

import (
	"context"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/shared/surety"
	"github.com/sirupsen/logrus"
)

// SuretyService defines the operations exposed over HTTP
type SuretyService interface {
	Status(ctx context.Context) *models.SystemStatus
	SetOperational(ctx context.Context, caller string, value bool) error
	Authorize(ctx context.Context, caller, id string) error
	Revoke(ctx context.Context, caller, id string) error
	Deposit(ctx context.Context, caller string, value int64) error
	VaultTransfers(ctx context.Context, limit int) []models.VaultTransfer

	ListAirlines(ctx context.Context) []models.Airline
	GetAirline(ctx context.Context, airlineID string) (*models.Airline, error)
	GetEnqueuedAirline(ctx context.Context, candidateID string) (*models.PendingApplication, error)
	RegisterAirline(ctx context.Context, caller string, req *models.RegisterAirlineRequest) (*models.Admission, error)
	FundAirline(ctx context.Context, caller string, value int64) (*models.Airline, error)

	ListFlights(ctx context.Context) []models.Flight
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	RegisterFlight(ctx context.Context, caller string, req *models.RegisterFlightRequest) (*models.Flight, error)
	FetchFlightStatus(ctx context.Context, caller, flightID string, req *models.FetchFlightStatusRequest) (*models.StatusRequestResponse, error)

	GetInsurance(ctx context.Context, flightID, passenger string) (*models.InsurancePolicy, error)
	BuyInsurance(ctx context.Context, passenger, flightID string, value int64) (*models.InsurancePolicy, error)
	Withdraw(ctx context.Context, passenger, flightID string) (*models.WithdrawResponse, error)

	RegisterOracle(ctx context.Context, caller string, bond int64) (*models.OracleRegistration, error)
	GetOracle(ctx context.Context, oracleID string) (*models.OracleRegistration, error)
	SubmitOracleResponse(ctx context.Context, caller string, req *models.OracleResponseRequest) (*models.ResponseOutcome, error)

	RecentEvents(ctx context.Context, limit int) []models.Event
}

// suretyServiceImpl implements SuretyService on top of the engine
type suretyServiceImpl struct {
	engine *surety.Engine
	log    logrus.FieldLogger
}

// NewSuretyService creates a new SuretyService
func NewSuretyService(engine *surety.Engine, log logrus.FieldLogger) SuretyService {
	return &suretyServiceImpl{
		engine: engine,
		log:    log.WithField("component", "service"),
	}
}

func (s *suretyServiceImpl) Status(ctx context.Context) *models.SystemStatus {
	return &models.SystemStatus{
		Operational:     s.engine.IsOperational(),
		RegistrationFee: s.engine.RegistrationFee(),
		VaultBalance:    s.engine.VaultBalance(),
		Liabilities:     s.engine.Liabilities(),
		Reserved:        s.engine.Reserved(),
		RegisteredCount: s.engine.RegisteredCount(),
		Owner:           s.engine.Owner(),
	}
}

func (s *suretyServiceImpl) SetOperational(ctx context.Context, caller string, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.engine.SetOperational(caller, value); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"caller": caller, "operational": value}).Info("operational flag changed")
	return nil
}

func (s *suretyServiceImpl) Authorize(ctx context.Context, caller, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Authorize(caller, id)
}

func (s *suretyServiceImpl) Revoke(ctx context.Context, caller, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Revoke(caller, id)
}

func (s *suretyServiceImpl) Deposit(ctx context.Context, caller string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.engine.Deposit(caller, value)
}

func (s *suretyServiceImpl) VaultTransfers(ctx context.Context, limit int) []models.VaultTransfer {
	return s.engine.VaultTransfers(limit)
}

func (s *suretyServiceImpl) ListAirlines(ctx context.Context) []models.Airline {
	return s.engine.ListAirlines()
}

func (s *suretyServiceImpl) GetAirline(ctx context.Context, airlineID string) (*models.Airline, error) {
	a, err := s.engine.GetAirline(airlineID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *suretyServiceImpl) GetEnqueuedAirline(ctx context.Context, candidateID string) (*models.PendingApplication, error) {
	app, err := s.engine.GetEnqueuedAirline(candidateID)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *suretyServiceImpl) RegisterAirline(ctx context.Context, caller string, req *models.RegisterAirlineRequest) (*models.Admission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	admission, err := s.engine.RegisterAirline(caller, req.AirlineID, req.Name)
	if err != nil {
		return nil, err
	}
	return &admission, nil
}

func (s *suretyServiceImpl) FundAirline(ctx context.Context, caller string, value int64) (*models.Airline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.engine.FundAirline(caller, value); err != nil {
		return nil, err
	}
	return s.GetAirline(ctx, caller)
}

func (s *suretyServiceImpl) ListFlights(ctx context.Context) []models.Flight {
	return s.engine.ListFlights()
}

func (s *suretyServiceImpl) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	f, err := s.engine.GetFlight(flightID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *suretyServiceImpl) RegisterFlight(ctx context.Context, caller string, req *models.RegisterFlightRequest) (*models.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.engine.RegisterFlight(caller, req.FlightID, req.Timestamp)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *suretyServiceImpl) FetchFlightStatus(ctx context.Context, caller, flightID string, req *models.FetchFlightStatusRequest) (*models.StatusRequestResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	airline, timestamp := req.Airline, req.Timestamp
	if airline == "" || timestamp == 0 {
		// Fall back to the registered flight's airline and departure.
		f, err := s.engine.GetFlight(flightID)
		if err != nil {
			return nil, err
		}
		if airline == "" {
			airline = f.Airline
		}
		if timestamp == 0 {
			timestamp = f.Timestamp
		}
	}

	key, err := s.engine.FetchFlightStatus(caller, airline, flightID, timestamp)
	if err != nil {
		return nil, err
	}
	return &models.StatusRequestResponse{
		Index:     key.Index,
		Airline:   key.Airline,
		FlightID:  key.FlightID,
		Timestamp: key.Timestamp,
	}, nil
}

func (s *suretyServiceImpl) GetInsurance(ctx context.Context, flightID, passenger string) (*models.InsurancePolicy, error) {
	p, err := s.engine.GetInsurance(flightID, passenger)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *suretyServiceImpl) BuyInsurance(ctx context.Context, passenger, flightID string, value int64) (*models.InsurancePolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.engine.BuyInsurance(passenger, flightID, value)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *suretyServiceImpl) Withdraw(ctx context.Context, passenger, flightID string) (*models.WithdrawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paid, err := s.engine.Withdraw(passenger, flightID)
	if err != nil {
		return nil, err
	}
	if paid > 0 {
		s.log.WithFields(logrus.Fields{
			"passenger": passenger,
			"flight":    flightID,
			"amount":    models.FormatUnits(paid),
		}).Info("payout withdrawn")
	}
	return &models.WithdrawResponse{FlightID: flightID, Paid: paid}, nil
}

func (s *suretyServiceImpl) RegisterOracle(ctx context.Context, caller string, bond int64) (*models.OracleRegistration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	indexes, err := s.engine.RegisterOracle(caller, bond)
	if err != nil {
		return nil, err
	}
	return &models.OracleRegistration{ID: caller, Indexes: indexes}, nil
}

func (s *suretyServiceImpl) GetOracle(ctx context.Context, oracleID string) (*models.OracleRegistration, error) {
	indexes, err := s.engine.OracleIndexes(oracleID)
	if err != nil {
		return nil, err
	}
	return &models.OracleRegistration{ID: oracleID, Indexes: indexes}, nil
}

func (s *suretyServiceImpl) SubmitOracleResponse(ctx context.Context, caller string, req *models.OracleResponseRequest) (*models.ResponseOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := models.OracleRequestKey{
		Index:     req.Index,
		Airline:   req.Airline,
		FlightID:  req.FlightID,
		Timestamp: req.Timestamp,
	}
	outcome, err := s.engine.SubmitOracleResponse(caller, key, req.StatusCode)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *suretyServiceImpl) RecentEvents(ctx context.Context, limit int) []models.Event {
	return s.engine.RecentEvents(limit)
}
