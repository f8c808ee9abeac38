package surety

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/shopspring/decimal"
)

// DefaultAppID is the identity the engine moves vault funds as.
const DefaultAppID = "flight-surety-app"

// Config holds the engine's rule constants. Amounts are minor units.
type Config struct {
	// Airlines admitted through RegisterAirline before votes are required.
	DirectAdmissionLimit int
	FundingThreshold     int64
	MaxPolicyValue       int64
	RegistrationFee      int64
	PayoutMultiplier     decimal.Decimal
	IndexesPerOracle     int
	// Indexes are drawn from [0, IndexRange).
	IndexRange   int
	MinResponses int
	// RejectLateResponses makes responses to finalized requests fail with
	// ErrNotFound instead of being recorded.
	RejectLateResponses bool
	HistorySize         int
}

// DefaultConfig returns the production rule set.
func DefaultConfig() Config {
	return Config{
		DirectAdmissionLimit: 4,
		FundingThreshold:     models.Units(10),
		MaxPolicyValue:       models.Units(1),
		RegistrationFee:      models.Units(1),
		PayoutMultiplier:     decimal.RequireFromString("1.5"),
		IndexesPerOracle:     3,
		IndexRange:           10,
		MinResponses:         3,
		HistorySize:          1024,
	}
}

// Validate checks the constants are usable together.
func (c Config) Validate() error {
	switch {
	case c.DirectAdmissionLimit < 1:
		return fmt.Errorf("direct admission limit must be positive, got %d", c.DirectAdmissionLimit)
	case c.FundingThreshold <= 0:
		return fmt.Errorf("funding threshold must be positive, got %d", c.FundingThreshold)
	case c.MaxPolicyValue <= 0:
		return fmt.Errorf("max policy value must be positive, got %d", c.MaxPolicyValue)
	case c.RegistrationFee <= 0:
		return fmt.Errorf("registration fee must be positive, got %d", c.RegistrationFee)
	case !c.PayoutMultiplier.IsPositive():
		return fmt.Errorf("payout multiplier must be positive, got %s", c.PayoutMultiplier)
	case c.IndexesPerOracle < 1:
		return fmt.Errorf("indexes per oracle must be positive, got %d", c.IndexesPerOracle)
	case c.IndexRange < c.IndexesPerOracle:
		return fmt.Errorf("index range %d cannot hold %d distinct indexes", c.IndexRange, c.IndexesPerOracle)
	case c.MinResponses < 1:
		return fmt.Errorf("min responses must be positive, got %d", c.MinResponses)
	case c.HistorySize < 1:
		return fmt.Errorf("history size must be positive, got %d", c.HistorySize)
	}
	return nil
}

// Genesis describes the state the engine starts from.
type Genesis struct {
	// Owner controls the guard and is the first registered, funded airline.
	Owner     string
	OwnerName string
	// AppID is authorized at genesis. Defaults to DefaultAppID.
	AppID          string
	InitialFunding int64
}

func (g Genesis) validate() error {
	if g.Owner == "" {
		return fmt.Errorf("%w: genesis owner is required", ErrInvalidArgument)
	}
	if g.InitialFunding < 0 {
		return fmt.Errorf("%w: genesis funding %d", ErrInvalidAmount, g.InitialFunding)
	}
	return nil
}
