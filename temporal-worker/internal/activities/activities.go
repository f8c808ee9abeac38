package activities

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/client"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/oracles"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// Activity names as registered with the worker.
const (
	RegisterOracleName       = "RegisterOracle"
	MatchingOraclesName      = "MatchingOracles"
	SubmitOracleResponseName = "SubmitOracleResponse"
)

// API is the part of the API server the activities use.
type API interface {
	Status(ctx context.Context) (*models.SystemStatus, error)
	RegisterOracle(ctx context.Context, oracleID string, bond int64) (*models.OracleRegistration, error)
	GetOracle(ctx context.Context, oracleID string) (*models.OracleRegistration, error)
	SubmitOracleResponse(ctx context.Context, oracleID string, key models.OracleRequestKey, status models.StatusCode) (*models.ResponseOutcome, error)
}

// Store persists registrations across worker restarts.
type Store interface {
	SaveOracle(ctx context.Context, reg models.OracleRegistration) error
}

// Activities holds dependencies for the oracle activities
type Activities struct {
	api   API
	fleet *oracles.Fleet
	store Store
}

// NewActivities creates a new Activities instance. store may be nil.
func NewActivities(api API, fleet *oracles.Fleet, store Store) *Activities {
	return &Activities{api: api, fleet: fleet, store: store}
}

// RegisterOracleInput is the input for RegisterOracle
type RegisterOracleInput struct {
	OracleID string `json:"oracleId"`
	// Bond of zero pays the engine's current registration fee.
	Bond int64 `json:"bond"`
}

// RegisterOracle bonds an oracle identity and adds it to the fleet. An
// identity the server already knows is recovered with its existing indexes.
func (a *Activities) RegisterOracle(ctx context.Context, input RegisterOracleInput) (*models.OracleRegistration, error) {
	logger := activity.GetLogger(ctx)

	bond := input.Bond
	if bond == 0 {
		status, err := a.api.Status(ctx)
		if err != nil {
			return nil, classify("status", err)
		}
		bond = status.RegistrationFee
	}

	reg, err := a.api.RegisterOracle(ctx, input.OracleID, bond)
	if client.IsConflict(err) {
		logger.Info("Oracle already registered, recovering indexes", "oracleId", input.OracleID)
		reg, err = a.api.GetOracle(ctx, input.OracleID)
	}
	if err != nil {
		return nil, classify("register oracle "+input.OracleID, err)
	}

	a.fleet.Add(*reg)
	if a.store != nil {
		if err := a.store.SaveOracle(ctx, *reg); err != nil {
			return nil, err
		}
	}
	logger.Info("Oracle registered", "oracleId", reg.ID, "indexes", reg.Indexes)
	return reg, nil
}

// MatchingOracles returns the fleet members holding the request's index.
func (a *Activities) MatchingOracles(ctx context.Context, input models.FlightStatusInput) ([]string, error) {
	ids := a.fleet.Matching(input.Index)
	activity.GetLogger(ctx).Info("Matched oracles", "request", input.String(), "count", len(ids))
	return ids, nil
}

// SubmitOracleResponse reports a randomly chosen status for the request as
// one oracle.
func (a *Activities) SubmitOracleResponse(ctx context.Context, input models.SubmitResponseInput) (*models.SubmitResponseResult, error) {
	status := a.fleet.RandomStatus()

	outcome, err := a.api.SubmitOracleResponse(ctx, input.OracleID, input.Request, status)
	if err != nil {
		return nil, classify("submit response as "+input.OracleID, err)
	}

	activity.GetLogger(ctx).Info("Oracle response submitted",
		"oracleId", input.OracleID,
		"request", input.Request.String(),
		"status", status.String(),
		"finalized", outcome.Finalized)

	return &models.SubmitResponseResult{
		OracleID:   input.OracleID,
		StatusCode: status,
		Finalized:  outcome.Finalized,
	}, nil
}

// classify marks errors retrying cannot fix as non-retryable.
func classify(op string, err error) error {
	if client.IsPermanent(err) {
		return temporal.NewNonRetryableApplicationError(fmt.Sprintf("%s: %v", op, err), "APIError", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
