package wizard_test

import (
	"testing"
	"time"

	sb "github.com/cordialsys/stakeboard"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/store"
	"github.com/cordialsys/stakeboard/testutil"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/stretchr/testify/require"
)

var now = testutil.FromTimeStamp("2024-05-01T12:00:00Z")

func snapshot() store.Snapshot {
	selected := testutil.Address(7)
	return store.Snapshot{
		Account: testutil.Address(1),
		Balances: store.Balances{
			Liquid:            testutil.Amount(10_000),
			Staked:            testutil.Amount(5_000),
			CoolingDown:       testutil.Amount(1_000),
			Allowance:         testutil.Amount(8_000),
			CooldownReleaseAt: now.Add(-time.Hour),
		},
		Selected: &selected,
	}
}

func TestValidate(t *testing.T) {
	const decimals = 2
	cooling := snapshot()
	cooling.Balances.CooldownReleaseAt = now.Add(time.Hour)
	empty := snapshot()
	empty.Balances.CoolingDown = testutil.Amount(0)

	vectors := []struct {
		name   string
		flow   wizard.Flow
		input  wizard.Input
		snap   store.Snapshot
		amount string
		err    string
	}{
		{name: "stake", flow: wizard.FlowStake, input: wizard.Input{Amount: "70"}, amount: "7000"},
		{name: "stake fraction", flow: wizard.FlowStake, input: wizard.Input{Amount: " 0.5 "}, amount: "50"},
		{name: "stake all allowance", flow: wizard.FlowStake, input: wizard.Input{Amount: "80"}, amount: "8000"},
		{name: "stake above allowance", flow: wizard.FlowStake, input: wizard.Input{Amount: "80.01"}, err: "allowance"},
		{name: "approve above allowance", flow: wizard.FlowApprove, input: wizard.Input{Amount: "90"}, amount: "9000"},
		{name: "approve above liquid", flow: wizard.FlowApprove, input: wizard.Input{Amount: "100.01"}, err: "liquid"},
		{name: "unstake", flow: wizard.FlowUnstake, input: wizard.Input{Amount: "50"}, amount: "5000"},
		{name: "unstake above staked", flow: wizard.FlowUnstake, input: wizard.Input{Amount: "51"}, err: "staked"},
		{name: "empty amount", flow: wizard.FlowStake, input: wizard.Input{}, err: "required"},
		{name: "zero amount", flow: wizard.FlowStake, input: wizard.Input{Amount: "0"}, err: "greater than zero"},
		{name: "negative amount", flow: wizard.FlowStake, input: wizard.Input{Amount: "-1"}, err: "greater than zero"},
		{name: "not a number", flow: wizard.FlowStake, input: wizard.Input{Amount: "ten"}, err: "invalid amount"},
		{name: "too many decimals", flow: wizard.FlowStake, input: wizard.Input{Amount: "1.001"}, err: "decimals"},
		{name: "trailing zeros", flow: wizard.FlowStake, input: wizard.Input{Amount: "1.0000000000000000000"}, amount: "100"},
		{name: "scientific notation", flow: wizard.FlowStake, input: wizard.Input{Amount: "1.5e1"}, amount: "1500"},
		{name: "huge exponent", flow: wizard.FlowStake, input: wizard.Input{Amount: "1e30000000"}, err: "too large"},
		{name: "wider than uint256", flow: wizard.FlowUnstake, input: wizard.Input{Amount: "1e78"}, err: "too large"},
		{name: "tiny exponent", flow: wizard.FlowStake, input: wizard.Input{Amount: "1e-30000000"}, err: "decimals"},
		{name: "restake", flow: wizard.FlowRestake, snap: cooling, amount: "1000"},
		{name: "restake nothing", flow: wizard.FlowRestake, snap: empty, err: "no tokens in cooldown"},
		{name: "withdraw", flow: wizard.FlowWithdraw, amount: "1000"},
		{name: "withdraw too early", flow: wizard.FlowWithdraw, snap: cooling, err: "cooling down until"},
		{name: "withdraw nothing", flow: wizard.FlowWithdraw, snap: empty, err: "no tokens in cooldown"},
		{name: "guardian", flow: wizard.FlowGuardianChange, input: wizard.Input{Guardian: testutil.Address(8)}, amount: "0"},
		{name: "guardian already selected", flow: wizard.FlowGuardianChange, input: wizard.Input{Guardian: testutil.Address(7)}, err: "already selected"},
		{name: "guardian invalid", flow: wizard.FlowGuardianChange, input: wizard.Input{Guardian: sb.Address("0x1234")}, err: "invalid guardian"},
	}
	for _, v := range vectors {
		t.Run(v.name, func(t *testing.T) {
			snap := v.snap
			if snap.Account == "" {
				snap = snapshot()
			}
			amount, err := wizard.Validate(v.flow, v.input, snap, decimals, now)
			if v.err != "" {
				require.ErrorContains(t, err, v.err)
				require.True(t, xcerrors.Is(err, xcerrors.UserInputInvalid))
				return
			}
			require.NoError(t, err)
			require.Equal(t, v.amount, amount.String())
		})
	}
}
