package wizard

import (
	"errors"
	"fmt"

	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/listener"
)

const PleaseApproveTxMessage = "Please approve the transaction in your wallet"

// Message is the text shown for a wizard state.
type Message struct {
	Message    string `json:"message"`
	SubMessage string `json:"sub_message"`
}

// Elements are the stable identifiers of a wizard's parts.
type Elements struct {
	Wizard          string `json:"wizard"`
	Initiate        string `json:"initiate"`
	WaitForConfirm  string `json:"wait_for_confirmation"`
	Congratulations string `json:"congratulations"`
	Failed          string `json:"failed"`
	AmountInput     string `json:"amount_input,omitempty"`
	GuardianInput   string `json:"guardian_input,omitempty"`
}

func ElementsOf(flow Flow) Elements {
	verb := flow.verb()
	e := Elements{
		Wizard:          "wizard_" + verb,
		Initiate:        fmt.Sprintf("wizard_sub_step_initiate_%s_tx", verb),
		WaitForConfirm:  fmt.Sprintf("wizard_sub_step_wait_for_%s_confirmation", verb),
		Congratulations: "wizard_sub_step_congratulations",
		Failed:          "wizard_sub_step_failed",
	}
	if flow.TakesAmount() {
		e.AmountInput = "input_orbs_for_" + verb
	}
	if flow.TakesGuardian() {
		e.GuardianInput = "input_guardian_address"
	}
	return e
}

// Element is the identifier of the part shown in the current step.
func (e Elements) Element(step Step) string {
	switch step {
	case StepInput, StepSubmitting:
		return e.Initiate
	case StepAwaitingConfirmation:
		return e.WaitForConfirm
	case StepSuccess:
		return e.Congratulations
	default:
		return e.Failed
	}
}

// ActionLabel is the text of the flow's action button.
func (f Flow) ActionLabel() string {
	switch f {
	case FlowApprove:
		return "Approve"
	case FlowStake:
		return "Stake"
	case FlowUnstake:
		return "Unstake"
	case FlowRestake:
		return "Restake"
	case FlowWithdraw:
		return "Withdraw"
	case FlowGuardianChange:
		return "Select"
	}
	return string(f)
}

func (f Flow) successMessage() string {
	switch f {
	case FlowApprove:
		return "Your allowance was approved"
	case FlowStake:
		return "Your tokens are staked"
	case FlowUnstake:
		return "Your tokens are cooling down"
	case FlowRestake:
		return "Your tokens are staked again"
	case FlowWithdraw:
		return "Your tokens were withdrawn"
	case FlowGuardianChange:
		return "Your guardian was changed"
	}
	return "Done"
}

// Messages returns the text for a state.
func Messages(s State) Message {
	switch s.Step {
	case StepInput:
		if s.InputErr != nil {
			return Message{Message: "Invalid input", SubMessage: errorText(s.InputErr)}
		}
		return Message{SubMessage: fmt.Sprintf("Press %q and accept the transaction", s.Flow.ActionLabel())}
	case StepSubmitting:
		return Message{SubMessage: PleaseApproveTxMessage}
	case StepAwaitingConfirmation:
		switch s.Tx.Kind {
		case listener.Confirming:
			return Message{
				Message:    "Waiting for confirmations",
				SubMessage: fmt.Sprintf("%d confirmations so far", s.Tx.Confirmations),
			}
		default:
			return Message{Message: "Transaction sent", SubMessage: "Waiting for the first confirmation"}
		}
	case StepSuccess:
		msg := Message{Message: "Congratulations", SubMessage: s.Flow.successMessage()}
		if s.CommitErr != nil {
			msg.SubMessage += ", refresh to see your balances"
		}
		return msg
	case StepFailed:
		return failureMessage(s.Err)
	}
	return Message{}
}

func failureMessage(err error) Message {
	switch xcerrors.StatusOf(err) {
	case xcerrors.TransactionRejectedByUser:
		return Message{Message: "Transaction rejected", SubMessage: "You rejected the transaction in your wallet"}
	case xcerrors.UserInputInvalid:
		return Message{Message: "Invalid input", SubMessage: errorText(err)}
	case xcerrors.TransactionFailedOnChain:
		return Message{Message: "Transaction failed", SubMessage: errorText(err)}
	case xcerrors.ConnectionUnavailable:
		return Message{Message: "Connection lost", SubMessage: "Reconnect your wallet and try again"}
	default:
		return Message{Message: "Something went wrong", SubMessage: errorText(err)}
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	var e *xcerrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
