package models

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the number of minor units in one standard unit of value.
const Unit int64 = 100_000_000

// Units converts a whole number of standard units to minor units.
func Units(n int64) int64 {
	return n * Unit
}

// FormatUnits renders minor units as a decimal amount of standard units.
func FormatUnits(minor int64) string {
	return decimal.New(minor, -8).String()
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ParseUnits parses a decimal amount of standard units into minor units.
// Amounts finer than one minor unit or outside the int64 range are rejected.
func ParseUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	minor := d.Shift(8)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %q is finer than one minor unit", s)
	}
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return minor.IntPart(), nil
}

// InsurancePolicy is a passenger's cover on a single flight
type InsurancePolicy struct {
	FlightID      string `json:"flightId"`
	Passenger     string `json:"passenger"`
	AmountPaid    int64  `json:"amountPaid"`
	PendingPayout int64  `json:"pendingPayout"`
	Credited      bool   `json:"credited"`
}

// TransferKind distinguishes value entering and leaving the vault.
type TransferKind string

const (
	TransferDeposit TransferKind = "deposit"
	TransferPayout  TransferKind = "payout"
)

// VaultTransfer is one movement of value through the vault
type VaultTransfer struct {
	ID           string       `json:"id"`
	Kind         TransferKind `json:"kind"`
	Account      string       `json:"account"`
	Amount       int64        `json:"amount"`
	BalanceAfter int64        `json:"balanceAfter"`
	Reference    string       `json:"reference"`
	CreatedAt    time.Time    `json:"createdAt"`
}
