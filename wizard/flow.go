package wizard

import (
	"fmt"

	sb "github.com/cordialsys/stakeboard"
)

// Flow is the kind of wizard.
type Flow string

const (
	FlowApprove        Flow = "approve"
	FlowStake          Flow = "stake"
	FlowUnstake        Flow = "unstake"
	FlowRestake        Flow = "restake"
	FlowWithdraw       Flow = "withdraw"
	FlowGuardianChange Flow = "guardian-change"
)

var Flows = []Flow{FlowApprove, FlowStake, FlowUnstake, FlowRestake, FlowWithdraw, FlowGuardianChange}

func ParseFlow(s string) (Flow, error) {
	for _, f := range Flows {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown wizard flow %q (options: %v)", s, Flows)
}

func (f Flow) Action() sb.Action {
	switch f {
	case FlowApprove:
		return sb.Approve
	case FlowStake:
		return sb.Stake
	case FlowUnstake:
		return sb.Unstake
	case FlowRestake:
		return sb.Restake
	case FlowWithdraw:
		return sb.Withdraw
	case FlowGuardianChange:
		return sb.Delegate
	}
	return ""
}

// TakesAmount reports whether the user enters an amount in this flow.
func (f Flow) TakesAmount() bool {
	return f.Action().HasAmount()
}

// TakesGuardian reports whether the user picks a guardian in this flow.
func (f Flow) TakesGuardian() bool {
	return f == FlowGuardianChange
}

// verb is used in element ids and messages, e.g. "staking".
func (f Flow) verb() string {
	switch f {
	case FlowApprove:
		return "allowance"
	case FlowStake:
		return "staking"
	case FlowUnstake:
		return "unstaking"
	case FlowRestake:
		return "restaking"
	case FlowWithdraw:
		return "withdrawing"
	case FlowGuardianChange:
		return "guardian_change"
	}
	return string(f)
}
