package surety

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/shopspring/decimal"
)

type policyKey struct {
	flightID  string
	passenger string
}

type insurancePool struct {
	policies map[policyKey]*models.InsurancePolicy
	byFlight map[string][]policyKey
}

func newInsurancePool() *insurancePool {
	return &insurancePool{
		policies: make(map[policyKey]*models.InsurancePolicy),
		byFlight: make(map[string][]policyKey),
	}
}

func (p *insurancePool) planBuy(c *change, cfg Config, v *vault, flights *flightRegistry, passenger, flightID string, value int64) (models.InsurancePolicy, error) {
	f, err := flights.require(flightID)
	if err != nil {
		return models.InsurancePolicy{}, err
	}
	if value <= 0 || value > cfg.MaxPolicyValue {
		return models.InsurancePolicy{}, fmt.Errorf("%w: policy value must be in (0, %s], got %s",
			ErrInvalidAmount, models.FormatUnits(cfg.MaxPolicyValue), models.FormatUnits(value))
	}
	key := policyKey{flightID: flightID, passenger: passenger}
	if _, ok := p.policies[key]; ok {
		return models.InsurancePolicy{}, fmt.Errorf("%w: %q already insured on flight %q", ErrAlreadyExists, passenger, flightID)
	}

	// A settled flight is never credited again, so nothing is reserved.
	if !f.Settled() {
		reserve := payout(value, cfg.PayoutMultiplier)
		if v.headroom()+value < reserve {
			return models.InsurancePolicy{}, fmt.Errorf("%w: vault cannot cover a payout of %s",
				ErrInsufficientFunds, models.FormatUnits(reserve))
		}
		c.reserve(reserve)
	}

	policy := &models.InsurancePolicy{FlightID: flightID, Passenger: passenger, AmountPaid: value}
	c.deposit(passenger, value, "insurance "+flightID)
	c.do(func() {
		p.policies[key] = policy
		p.byFlight[flightID] = append(p.byFlight[flightID], key)
	})
	return *policy, nil
}

// planCredit stages the payout owed to every uncredited policyholder of a
// flight that resolved LateAirline.
func (p *insurancePool) planCredit(c *change, multiplier decimal.Decimal, flightID string) {
	for _, key := range p.byFlight[flightID] {
		policy := p.policies[key]
		if policy.Credited || policy.PendingPayout != 0 {
			continue
		}
		amount := payout(policy.AmountPaid, multiplier)
		c.owe(amount)
		c.reserve(-amount)
		c.do(func() {
			policy.PendingPayout = amount
			policy.Credited = true
		})
		c.emit(models.Event{
			Type:      models.EventInsureeCredited,
			FlightID:  flightID,
			Passenger: policy.Passenger,
			Amount:    amount,
		})
	}
}

// planRelease frees the payouts reserved for a flight that settled without
// owing anything.
func (p *insurancePool) planRelease(c *change, multiplier decimal.Decimal, flightID string) {
	for _, key := range p.byFlight[flightID] {
		policy := p.policies[key]
		if policy.Credited {
			continue
		}
		c.reserve(-payout(policy.AmountPaid, multiplier))
	}
}

// payout scales amount by multiplier, rounding down to a whole minor unit.
func payout(amount int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(multiplier).Floor().IntPart()
}

func (p *insurancePool) planWithdraw(c *change, passenger, flightID string) (int64, error) {
	policy, ok := p.policies[policyKey{flightID: flightID, passenger: passenger}]
	if !ok {
		return 0, fmt.Errorf("%w: no policy for %q on flight %q", ErrNotFound, passenger, flightID)
	}
	amount := policy.PendingPayout
	if amount == 0 {
		return 0, nil
	}

	c.payout(passenger, amount, "payout "+flightID)
	c.owe(-amount)
	c.do(func() { policy.PendingPayout = 0 })
	c.emit(models.Event{
		Type:      models.EventPayoutWithdrawn,
		FlightID:  flightID,
		Passenger: passenger,
		Amount:    amount,
	})
	return amount, nil
}

func (p *insurancePool) get(flightID, passenger string) (models.InsurancePolicy, error) {
	policy, ok := p.policies[policyKey{flightID: flightID, passenger: passenger}]
	if !ok {
		return models.InsurancePolicy{}, fmt.Errorf("%w: no policy for %q on flight %q", ErrNotFound, passenger, flightID)
	}
	return *policy, nil
}
