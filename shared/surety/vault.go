package surety

import (
	"fmt"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/google/uuid"
)

// vault custodies every unit of value held by the engine. Exposure is the
// worst-case payout of policies on flights that have not settled yet, so
// balance >= liabilities + exposure holds after every operation.
type vault struct {
	balance     int64
	liabilities int64
	exposure    int64
	transfers   []models.VaultTransfer
	keep        int
}

func newVault(keep int) *vault {
	return &vault{keep: keep}
}

// admit checks the staged change against the vault. Transfers are executed
// on behalf of actor, which must be authorized.
func (v *vault) admit(c *change, g *guard, actor string) error {
	if len(c.transfers) > 0 {
		if err := g.requireAuthorized(actor); err != nil {
			return err
		}
	}
	for _, t := range c.transfers {
		if t.Amount <= 0 {
			return fmt.Errorf("%w: transfer of %d", ErrInvalidAmount, t.Amount)
		}
	}
	balance := v.balance + c.net()
	liabilities := v.liabilities + c.liabilities
	exposure := v.exposure + c.reserved
	if balance < 0 || liabilities < 0 || exposure < 0 || balance-liabilities < exposure {
		return fmt.Errorf("%w: balance %d would fall below liabilities %d plus reserved %d",
			ErrInvariantViolated, balance, liabilities, exposure)
	}
	return nil
}

// headroom is the value not owed or reserved.
func (v *vault) headroom() int64 {
	return v.balance - v.liabilities - v.exposure
}

func (v *vault) apply(c *change, now time.Time) {
	for _, t := range c.transfers {
		if t.Kind == models.TransferDeposit {
			v.balance += t.Amount
		} else {
			v.balance -= t.Amount
		}
		t.ID = uuid.NewString()
		t.BalanceAfter = v.balance
		t.CreatedAt = now
		v.transfers = append(v.transfers, t)
	}
	v.liabilities += c.liabilities
	v.exposure += c.reserved
	if over := len(v.transfers) - v.keep; over > 0 {
		v.transfers = append([]models.VaultTransfer(nil), v.transfers[over:]...)
	}
}

func (v *vault) recent(n int) []models.VaultTransfer {
	if n <= 0 || n > len(v.transfers) {
		n = len(v.transfers)
	}
	out := make([]models.VaultTransfer, n)
	copy(out, v.transfers[len(v.transfers)-n:])
	return out
}

func (v *vault) planDeposit(c *change, g *guard, caller string, value int64) error {
	if err := g.requireAuthorized(caller); err != nil {
		return err
	}
	if value <= 0 {
		return fmt.Errorf("%w: deposit of %d", ErrInvalidAmount, value)
	}
	c.deposit(caller, value, "vault deposit")
	return nil
}
