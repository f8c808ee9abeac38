package surety

import "github.com/cx-tal-miterani/flight-surety-system/shared/models"

// change stages the effects of one operation. Planning code only reads
// state; everything it wants to write goes through a change and is applied
// after all checks pass.
type change struct {
	effects   []func()
	transfers []models.VaultTransfer
	// liabilities is the net change to the sum of pending payouts.
	liabilities int64
	// reserved is the net change to payouts held for unsettled flights.
	reserved int64
	events   []models.Event
}

func (c *change) do(f func()) {
	c.effects = append(c.effects, f)
}

func (c *change) emit(ev models.Event) {
	c.events = append(c.events, ev)
}

func (c *change) deposit(account string, amount int64, ref string) {
	c.transfers = append(c.transfers, models.VaultTransfer{
		Kind:      models.TransferDeposit,
		Account:   account,
		Amount:    amount,
		Reference: ref,
	})
}

func (c *change) payout(account string, amount int64, ref string) {
	c.transfers = append(c.transfers, models.VaultTransfer{
		Kind:      models.TransferPayout,
		Account:   account,
		Amount:    amount,
		Reference: ref,
	})
}

func (c *change) owe(delta int64) {
	c.liabilities += delta
}

func (c *change) reserve(delta int64) {
	c.reserved += delta
}

// net returns the staged change to the vault balance.
func (c *change) net() int64 {
	var n int64
	for _, t := range c.transfers {
		if t.Kind == models.TransferDeposit {
			n += t.Amount
		} else {
			n -= t.Amount
		}
	}
	return n
}
