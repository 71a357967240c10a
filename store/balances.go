package store

import (
	"fmt"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
)

// Balances of the connected account. All amounts are non-negative.
type Balances struct {
	Liquid      sb.AmountBlockchain `json:"liquid"`
	Staked      sb.AmountBlockchain `json:"staked"`
	CoolingDown sb.AmountBlockchain `json:"cooling_down"`
	// Remaining allowance of the staking contract over liquid tokens
	Allowance         sb.AmountBlockchain `json:"allowance"`
	CooldownReleaseAt time.Time           `json:"cooldown_release_at,omitempty"`
}

func BalancesFromAccount(account *client.Account) Balances {
	return Balances{
		Liquid:            account.Liquid,
		Staked:            account.Staked,
		CoolingDown:       account.CoolingDown,
		Allowance:         account.Allowance,
		CooldownReleaseAt: account.CooldownReleaseAt,
	}
}

// Total is liquid + staked + cooling down.
func (b Balances) Total() sb.AmountBlockchain {
	sum := b.Liquid.Add(&b.Staked)
	return sum.Add(&b.CoolingDown)
}

// Withdrawable reports whether there are cooled down tokens ready to withdraw.
func (b Balances) Withdrawable(now time.Time) bool {
	return b.CoolingDown.Sign() > 0 && !now.Before(b.CooldownReleaseAt)
}

// Request describes a transaction the store should submit.
type Request struct {
	Action   sb.Action           `json:"action"`
	Amount   sb.AmountBlockchain `json:"amount"`
	Guardian sb.Address          `json:"guardian,omitempty"`
}

// Outcome is a confirmed request, ready to be committed.
type Outcome struct {
	Request
	Receipt *sb.Receipt `json:"receipt,omitempty"`
	// Balances when the transaction was submitted. A balance that differs
	// from it at commit time was already updated from the chain (a feed
	// notification or a refresh) and is left alone.
	Before *Balances `json:"-"`
}

// reported tells whether a balance moved since submission.
func (o Outcome) reported(current, before sb.AmountBlockchain) bool {
	return o.Before != nil && current.Cmp(&before) != 0
}

// apply returns the balances after outcome, leaving b untouched.
// Movements between categories conserve the total.
func (b Balances) apply(outcome Outcome, now time.Time, cooldown time.Duration) (Balances, error) {
	amount := outcome.Amount
	if amount.Sign() < 0 {
		return b, xcerrors.UserInputInvalidf("negative amount %s", amount.String())
	}
	before := b
	if outcome.Before != nil {
		before = *outcome.Before
	}
	next := b
	var err error
	switch outcome.Action {
	case sb.Approve:
		if !outcome.reported(b.Allowance, before.Allowance) {
			next.Allowance = amount
		}

	case sb.Stake:
		if !outcome.reported(b.Liquid, before.Liquid) {
			if next.Liquid, err = b.Liquid.SafeSub(&amount); err != nil {
				return b, fmt.Errorf("stake: %w", err)
			}
		}
		if !outcome.reported(b.Staked, before.Staked) {
			next.Staked = b.Staked.Add(&amount)
		}
		if !outcome.reported(b.Allowance, before.Allowance) {
			if b.Allowance.Cmp(&amount) >= 0 {
				next.Allowance = b.Allowance.Sub(&amount)
			} else {
				next.Allowance = sb.NewAmountBlockchainFromUint64(0)
			}
		}

	case sb.Unstake:
		if !outcome.reported(b.Staked, before.Staked) {
			if next.Staked, err = b.Staked.SafeSub(&amount); err != nil {
				return b, fmt.Errorf("unstake: %w", err)
			}
		}
		if !outcome.reported(b.CoolingDown, before.CoolingDown) {
			next.CoolingDown = b.CoolingDown.Add(&amount)
			// the contract restarts the cooldown for everything cooling down
			next.CooldownReleaseAt = now.Add(cooldown)
		}

	case sb.Restake:
		// the contract moves what was cooling down when the tx was sent
		moved := before.CoolingDown
		if !outcome.reported(b.Staked, before.Staked) {
			next.Staked = b.Staked.Add(&moved)
		}
		if !outcome.reported(b.CoolingDown, before.CoolingDown) {
			next.CoolingDown = sb.NewAmountBlockchainFromUint64(0)
			next.CooldownReleaseAt = time.Time{}
		}

	case sb.Withdraw:
		moved := before.CoolingDown
		if !outcome.reported(b.Liquid, before.Liquid) {
			next.Liquid = b.Liquid.Add(&moved)
		}
		if !outcome.reported(b.CoolingDown, before.CoolingDown) {
			next.CoolingDown = sb.NewAmountBlockchainFromUint64(0)
			next.CooldownReleaseAt = time.Time{}
		}

	case sb.Delegate:
		// balances are unaffected

	default:
		return b, fmt.Errorf("unknown action %q", outcome.Action)
	}
	return next, nil
}
