package mocks

import (
	"context"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/stretchr/testify/mock"
)

// MockSuretyService is a mock implementation of SuretyService
type MockSuretyService struct {
	mock.Mock
}

func (m *MockSuretyService) Status(ctx context.Context) *models.SystemStatus {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.SystemStatus)
}

func (m *MockSuretyService) SetOperational(ctx context.Context, caller string, value bool) error {
	args := m.Called(ctx, caller, value)
	return args.Error(0)
}

func (m *MockSuretyService) Authorize(ctx context.Context, caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockSuretyService) Revoke(ctx context.Context, caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockSuretyService) Deposit(ctx context.Context, caller string, value int64) error {
	args := m.Called(ctx, caller, value)
	return args.Error(0)
}

func (m *MockSuretyService) VaultTransfers(ctx context.Context, limit int) []models.VaultTransfer {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.VaultTransfer)
}

func (m *MockSuretyService) ListAirlines(ctx context.Context) []models.Airline {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Airline)
}

func (m *MockSuretyService) GetAirline(ctx context.Context, airlineID string) (*models.Airline, error) {
	args := m.Called(ctx, airlineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Airline), args.Error(1)
}

func (m *MockSuretyService) GetEnqueuedAirline(ctx context.Context, candidateID string) (*models.PendingApplication, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingApplication), args.Error(1)
}

func (m *MockSuretyService) RegisterAirline(ctx context.Context, caller string, req *models.RegisterAirlineRequest) (*models.Admission, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admission), args.Error(1)
}

func (m *MockSuretyService) FundAirline(ctx context.Context, caller string, value int64) (*models.Airline, error) {
	args := m.Called(ctx, caller, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Airline), args.Error(1)
}

func (m *MockSuretyService) ListFlights(ctx context.Context) []models.Flight {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Flight)
}

func (m *MockSuretyService) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockSuretyService) RegisterFlight(ctx context.Context, caller string, req *models.RegisterFlightRequest) (*models.Flight, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockSuretyService) FetchFlightStatus(ctx context.Context, caller, flightID string, req *models.FetchFlightStatusRequest) (*models.StatusRequestResponse, error) {
	args := m.Called(ctx, caller, flightID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatusRequestResponse), args.Error(1)
}

func (m *MockSuretyService) GetInsurance(ctx context.Context, flightID, passenger string) (*models.InsurancePolicy, error) {
	args := m.Called(ctx, flightID, passenger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsurancePolicy), args.Error(1)
}

func (m *MockSuretyService) BuyInsurance(ctx context.Context, passenger, flightID string, value int64) (*models.InsurancePolicy, error) {
	args := m.Called(ctx, passenger, flightID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsurancePolicy), args.Error(1)
}

func (m *MockSuretyService) Withdraw(ctx context.Context, passenger, flightID string) (*models.WithdrawResponse, error) {
	args := m.Called(ctx, passenger, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawResponse), args.Error(1)
}

func (m *MockSuretyService) RegisterOracle(ctx context.Context, caller string, bond int64) (*models.OracleRegistration, error) {
	args := m.Called(ctx, caller, bond)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OracleRegistration), args.Error(1)
}

func (m *MockSuretyService) GetOracle(ctx context.Context, oracleID string) (*models.OracleRegistration, error) {
	args := m.Called(ctx, oracleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OracleRegistration), args.Error(1)
}

func (m *MockSuretyService) SubmitOracleResponse(ctx context.Context, caller string, req *models.OracleResponseRequest) (*models.ResponseOutcome, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResponseOutcome), args.Error(1)
}

func (m *MockSuretyService) RecentEvents(ctx context.Context, limit int) []models.Event {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Event)
}
