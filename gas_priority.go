package stakeboard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fees are paid in the native asset, not the staked token.
const NativeDecimals = 18

const MaxCustomPriority = 10

type GasFeePriority string

var Low GasFeePriority = "low"
var Market GasFeePriority = "market"
var Aggressive GasFeePriority = "aggressive"
var VeryAggressive GasFeePriority = "very-aggressive"

func NewPriority(input string) (GasFeePriority, error) {
	p := GasFeePriority(input)
	if p.IsEnum() {
		return p, nil
	}
	_, err := p.AsCustom()
	return p, err
}

func (p GasFeePriority) IsEnum() bool {
	switch p {
	case Low, Market, Aggressive, VeryAggressive:
		return true
	}
	return false
}

func (p GasFeePriority) AsCustom() (decimal.Decimal, error) {
	if p.IsEnum() {
		return decimal.Decimal{}, errors.New("not a custom enum")
	}
	dec, err := decimal.NewFromString(string(p))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal: %v", err)
	}
	if dec.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("invalid custom multiplier %s, must be positive", dec)
	}
	if dec.GreaterThan(decimal.NewFromInt(MaxCustomPriority)) {
		return decimal.Decimal{}, fmt.Errorf("%s exceeds custom multiplier limit of %d", dec, MaxCustomPriority)
	}
	return dec, nil
}

// GetDefault returns the multiplier applied to the suggested tip.
// An unset priority is the market rate.
func (p GasFeePriority) GetDefault() (decimal.Decimal, error) {
	switch p {
	case "":
		return decimal.NewFromInt(1), nil
	case Low:
		return decimal.NewFromFloat(0.7), nil
	case Market:
		// use int for market to be exact 1
		return decimal.NewFromInt(1), nil
	case Aggressive:
		return decimal.NewFromFloat(1.5), nil
	case VeryAggressive:
		return decimal.NewFromInt(2), nil
	}
	return p.AsCustom()
}

// Apply scales a fee amount by the priority multiplier.
func (p GasFeePriority) Apply(amount AmountBlockchain) (AmountBlockchain, error) {
	mult, err := p.GetDefault()
	if err != nil {
		return amount, err
	}
	scaled := decimal.NewFromBigInt(amount.Int(), 0).Mul(mult)
	return AmountBlockchain(*scaled.BigInt()), nil
}

// CheckFeeLimit protects against fee griefing: the most a transaction
// may spend on gas must stay under the configured limit. A zero limit
// disables the check.
func CheckFeeLimit(maxSpend AmountBlockchain, chain *ChainConfig) error {
	if chain.FeeLimit.IsZero() {
		return nil
	}
	limit := chain.FeeLimit.ToBlockchain(NativeDecimals)
	if maxSpend.Cmp(&limit) > 0 {
		human := maxSpend.ToHuman(NativeDecimals)
		return fmt.Errorf(
			"transaction fee may cost up to %s %s, which is greater than the current limit of %s",
			human.String(),
			chain.NativeSymbol(),
			chain.FeeLimit.String(),
		)
	}
	return nil
}
