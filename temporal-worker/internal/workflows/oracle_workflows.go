package workflows

import (
	"fmt"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/temporal-worker/internal/activities"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// ActivityTimeout bounds a single API call
	ActivityTimeout = 30 * time.Second
	// DefaultRegistrationAttempts is used when the input does not set one
	DefaultRegistrationAttempts = 5
)

// FlightStatusWorkflowID derives the workflow id for an oracle request. seq
// tells apart requests re-opened under the same key.
func FlightStatusWorkflowID(key models.OracleRequestKey, seq uint64) string {
	return fmt.Sprintf("flight-status-%s-%d", key.String(), seq)
}

func activityOptions(attempts int32) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    attempts,
		},
	}
}

// OracleRegistrationWorkflow registers every identity in parallel. Identities
// that still fail after retries are reported, not fatal.
func OracleRegistrationWorkflow(ctx workflow.Context, input models.OracleRegistrationInput) (*models.OracleRegistrationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Oracle registration workflow started", "count", len(input.OracleIDs))

	attempts := input.Attempts
	if attempts <= 0 {
		attempts = DefaultRegistrationAttempts
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions(attempts))

	futures := make([]workflow.Future, len(input.OracleIDs))
	for i, id := range input.OracleIDs {
		futures[i] = workflow.ExecuteActivity(ctx, activities.RegisterOracleName, activities.RegisterOracleInput{
			OracleID: id,
			Bond:     input.Bond,
		})
	}

	result := &models.OracleRegistrationResult{}
	for i, f := range futures {
		var reg models.OracleRegistration
		if err := f.Get(ctx, &reg); err != nil {
			logger.Error("Oracle registration failed", "oracleId", input.OracleIDs[i], "error", err)
			result.Failed = append(result.Failed, input.OracleIDs[i])
			continue
		}
		result.Registered = append(result.Registered, reg)
	}

	logger.Info("Oracle registration workflow completed",
		"registered", len(result.Registered),
		"failed", len(result.Failed))
	return result, nil
}

// FlightStatusWorkflow answers one OracleRequest: every fleet oracle holding
// the request's index submits a status. Failed submissions are counted and
// logged.
func FlightStatusWorkflow(ctx workflow.Context, input models.FlightStatusInput) (*models.FlightStatusResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Flight status workflow started", "request", input.String())

	ctx = workflow.WithActivityOptions(ctx, activityOptions(3))

	var oracleIDs []string
	if err := workflow.ExecuteActivity(ctx, activities.MatchingOraclesName, input).Get(ctx, &oracleIDs); err != nil {
		return nil, fmt.Errorf("failed to match oracles: %w", err)
	}

	result := &models.FlightStatusResult{Matching: len(oracleIDs)}
	if len(oracleIDs) == 0 {
		logger.Warn("No oracle holds the requested index", "index", input.Index)
		return result, nil
	}

	futures := make([]workflow.Future, len(oracleIDs))
	for i, id := range oracleIDs {
		futures[i] = workflow.ExecuteActivity(ctx, activities.SubmitOracleResponseName, models.SubmitResponseInput{
			OracleID: id,
			Request:  input.OracleRequestKey,
		})
	}

	for i, f := range futures {
		var res models.SubmitResponseResult
		if err := f.Get(ctx, &res); err != nil {
			logger.Warn("Oracle response failed", "oracleId", oracleIDs[i], "error", err)
			result.Failed++
			continue
		}
		result.Submitted++
		if res.Finalized {
			result.Finalized = true
		}
	}

	logger.Info("Flight status workflow completed",
		"submitted", result.Submitted,
		"failed", result.Failed,
		"finalized", result.Finalized)
	return result, nil
}
