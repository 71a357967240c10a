package stakeboard_test

import (
	"testing"

	sb "github.com/cordialsys/stakeboard"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPriority(t *testing.T) {
	type testcase struct {
		input   string
		custom  bool
		decimal decimal.Decimal
		err     string
	}
	vectors := []testcase{
		{input: "low"},
		{input: "market"},
		{input: "aggressive"},
		{input: "very-aggressive"},
		{input: "random", custom: true, err: "invalid"},
		{input: "1.2", custom: true, decimal: decimal.NewFromFloat(1.2)},
		{input: "1.2.3", custom: true, err: "invalid"},
		{input: "-1", custom: true, err: "must be positive"},
		{input: "11.0", custom: true, err: "exceeds custom multiplier"},
	}

	for _, v := range vectors {
		t.Run(v.input, func(t *testing.T) {
			priority := sb.GasFeePriority(v.input)
			require.Equal(t, v.custom, !priority.IsEnum())

			if v.custom {
				dec, err := priority.AsCustom()
				if v.err != "" {
					require.ErrorContains(t, err, v.err)
				} else {
					require.NoError(t, err)
					require.Equal(t, v.decimal.String(), dec.String())
				}
			}

			_, err := sb.NewPriority(v.input)
			if v.err != "" {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPriorityApply(t *testing.T) {
	tip := sb.NewAmountBlockchainFromUint64(1_000_000_000)
	for _, v := range []struct {
		priority sb.GasFeePriority
		expected uint64
	}{
		{"", 1_000_000_000},
		{sb.Low, 700_000_000},
		{sb.Market, 1_000_000_000},
		{sb.Aggressive, 1_500_000_000},
		{sb.VeryAggressive, 2_000_000_000},
		{"1.25", 1_250_000_000},
	} {
		out, err := v.priority.Apply(tip)
		require.NoError(t, err)
		require.EqualValues(t, v.expected, out.Uint64(), "priority %q", v.priority)
	}

	_, err := sb.GasFeePriority("fast").Apply(tip)
	require.Error(t, err)
}

func TestCheckFeeLimit(t *testing.T) {
	chain := &sb.ChainConfig{Chain: "ETH"}
	spend := sb.NewAmountBlockchainFromStr("2000000000000000")

	// no limit configured
	require.NoError(t, sb.CheckFeeLimit(spend, chain))

	chain.FeeLimit = sb.NewAmountHumanReadableFromFloat(0.01)
	require.NoError(t, sb.CheckFeeLimit(spend, chain))

	chain.FeeLimit = sb.NewAmountHumanReadableFromFloat(0.001)
	err := sb.CheckFeeLimit(spend, chain)
	require.ErrorContains(t, err, "transaction fee may cost up to 0.002 ETH, which is greater than the current limit of 0.001")
}
