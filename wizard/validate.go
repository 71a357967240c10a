package wizard

import (
	"strings"
	"time"

	sb "github.com/cordialsys/stakeboard"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/store"
)

// Input is what the user typed into a wizard.
type Input struct {
	// Human readable token amount, e.g. "1500.5"
	Amount   string
	Guardian sb.Address
}

// Validate checks input against the account state and converts the amount to
// its smallest unit. Failures are UserInputInvalid errors.
func Validate(flow Flow, input Input, snap store.Snapshot, decimals int32, now time.Time) (sb.AmountBlockchain, error) {
	zero := sb.NewAmountBlockchainFromUint64(0)
	balances := snap.Balances

	switch flow {
	case FlowApprove, FlowStake, FlowUnstake:
		amount, err := parseHumanAmount(input.Amount, decimals)
		if err != nil {
			return zero, err
		}
		var available sb.AmountBlockchain
		var what string
		switch flow {
		case FlowUnstake:
			available, what = balances.Staked, "staked"
		default:
			available, what = balances.Liquid, "liquid"
		}
		if amount.Cmp(&available) > 0 {
			return zero, xcerrors.UserInputInvalidf("amount %s is more than your %s balance of %s",
				input.Amount, what, available.ToHuman(decimals).String())
		}
		if flow == FlowStake && amount.Cmp(&balances.Allowance) > 0 {
			return zero, xcerrors.UserInputInvalidf("amount %s is more than the approved allowance of %s, approve it first",
				input.Amount, balances.Allowance.ToHuman(decimals).String())
		}
		return amount, nil

	case FlowRestake, FlowWithdraw:
		if balances.CoolingDown.Sign() <= 0 {
			return zero, xcerrors.UserInputInvalidf("no tokens in cooldown")
		}
		if flow == FlowWithdraw && !balances.Withdrawable(now) {
			return zero, xcerrors.UserInputInvalidf("tokens are cooling down until %s",
				balances.CooldownReleaseAt.UTC().Format(time.RFC3339))
		}
		return balances.CoolingDown, nil

	case FlowGuardianChange:
		if !input.Guardian.Valid() {
			return zero, xcerrors.UserInputInvalidf("invalid guardian address %q", input.Guardian)
		}
		if snap.IsSelected(input.Guardian) {
			return zero, xcerrors.UserInputInvalidf("guardian %s is already selected", input.Guardian.Short())
		}
		return zero, nil
	}
	return zero, xcerrors.UserInputInvalidf("unknown wizard flow %q", flow)
}

// digits of the largest uint256
const maxAmountDigits = 78

func parseHumanAmount(input string, decimals int32) (sb.AmountBlockchain, error) {
	zero := sb.NewAmountBlockchainFromUint64(0)
	input = strings.TrimSpace(input)
	if input == "" {
		return zero, xcerrors.UserInputInvalidf("amount is required")
	}
	human, err := sb.NewAmountHumanReadableFromStr(input)
	if err != nil {
		return zero, xcerrors.UserInputInvalidf("invalid amount %q", input)
	}
	if human.Sign() <= 0 {
		return zero, xcerrors.UserInputInvalidf("amount must be greater than zero")
	}
	// Work on the digits: scientific notation can ask for an integer far too
	// large to build, in either direction.
	dec := human.Decimal()
	digits := dec.Coefficient().String()
	significant := strings.TrimRight(digits, "0")
	exponent := int64(dec.Exponent()) + int64(len(digits)-len(significant))
	if int64(len(significant))+exponent > maxAmountDigits {
		return zero, xcerrors.UserInputInvalidf("amount %q is too large", input)
	}
	if exponent < -int64(decimals) {
		return zero, xcerrors.UserInputInvalidf("amount %q has more than %d decimals", input, decimals)
	}
	return human.ToBlockchain(decimals), nil
}
