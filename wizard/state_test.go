package wizard_test

import (
	"testing"

	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/listener"
	"github.com/cordialsys/stakeboard/testutil"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/stretchr/testify/require"
)

func validInput() wizard.InputChanged {
	return wizard.InputChanged{AmountInput: "70", Amount: testutil.Amount(7000), Set: true}
}

func mustTransition(t *testing.T, s wizard.State, events ...wizard.Event) wizard.State {
	t.Helper()
	for _, ev := range events {
		var err error
		s, err = wizard.Transition(s, ev)
		require.NoError(t, err, "event %T", ev)
	}
	return s
}

func TestTransitionHappyPath(t *testing.T) {
	require := require.New(t)
	s := wizard.NewState(wizard.FlowStake)
	require.Equal(wizard.StepInput, s.Step)
	require.True(s.InputsEnabled())
	require.False(s.ActionEnabled())

	s = mustTransition(t, s, validInput())
	require.True(s.ActionEnabled())

	s = mustTransition(t, s, wizard.Confirmed{})
	require.Equal(wizard.StepSubmitting, s.Step)
	require.False(s.InputsEnabled())
	require.False(s.ActionEnabled())

	s = mustTransition(t, s, wizard.HandleCreated{Hash: testutil.TxHash(1)})
	require.Equal(wizard.StepAwaitingConfirmation, s.Step)
	require.Equal(testutil.TxHash(1), s.Tx.Hash)

	s = mustTransition(t, s, wizard.TxStatusChanged{Status: listener.Status{Kind: listener.Confirming, Confirmations: 2}})
	require.Equal(wizard.StepAwaitingConfirmation, s.Step)
	require.EqualValues(2, s.Tx.Confirmations)
	require.Equal(testutil.TxHash(1), s.Tx.Hash)

	s = mustTransition(t, s, wizard.TxStatusChanged{Status: listener.Status{Kind: listener.Success, Confirmations: 6}})
	require.Equal(wizard.StepSuccess, s.Step)
	require.True(s.Terminal())
	require.NoError(s.CommitErr)
}

func TestTransitionTerminalIsAbsorbing(t *testing.T) {
	events := []wizard.Event{
		validInput(),
		wizard.Confirmed{},
		wizard.HandleCreated{Hash: testutil.TxHash(2)},
		wizard.SubmitFailed{},
		wizard.TxStatusChanged{Status: listener.Status{Kind: listener.Confirming, Confirmations: 1}},
		wizard.Disconnected{},
	}
	success := mustTransition(t, wizard.NewState(wizard.FlowStake),
		validInput(), wizard.Confirmed{}, wizard.HandleCreated{Hash: testutil.TxHash(2)},
		wizard.TxStatusChanged{Status: listener.Status{Kind: listener.Success}})
	failed := mustTransition(t, wizard.NewState(wizard.FlowStake), wizard.Disconnected{})

	for _, terminal := range []wizard.State{success, failed} {
		for _, ev := range events {
			next, err := wizard.Transition(terminal, ev)
			require.ErrorIs(t, err, wizard.ErrTerminal)
			require.Equal(t, terminal, next)
		}
	}
}

func TestTransitionInputLockedAfterConfirm(t *testing.T) {
	require := require.New(t)
	s := mustTransition(t, wizard.NewState(wizard.FlowUnstake), validInput(), wizard.Confirmed{})

	next, err := wizard.Transition(s, wizard.InputChanged{AmountInput: "1", Amount: testutil.Amount(1), Set: true})
	require.ErrorIs(err, wizard.ErrUnexpected)
	require.Equal("70", next.AmountInput)

	_, err = wizard.Transition(s, wizard.Confirmed{})
	require.ErrorIs(err, wizard.ErrUnexpected)
}

func TestTransitionConfirmNeedsValidInput(t *testing.T) {
	require := require.New(t)
	s := wizard.NewState(wizard.FlowStake)
	_, err := wizard.Transition(s, wizard.Confirmed{})
	require.ErrorIs(err, wizard.ErrInputNotReady)

	invalid := xcerrors.UserInputInvalidf("amount must be greater than zero")
	s = mustTransition(t, s, wizard.InputChanged{AmountInput: "0", Set: true, Err: invalid})
	require.False(s.ActionEnabled())
	_, err = wizard.Transition(s, wizard.Confirmed{})
	require.ErrorIs(err, wizard.ErrInputNotReady)
	require.True(xcerrors.Is(err, xcerrors.UserInputInvalid))
}

func TestTransitionFailures(t *testing.T) {
	require := require.New(t)
	submitting := mustTransition(t, wizard.NewState(wizard.FlowWithdraw), validInput(), wizard.Confirmed{})

	rejected := mustTransition(t, submitting, wizard.SubmitFailed{Err: xcerrors.RejectedByUserf("user denied")})
	require.Equal(wizard.StepFailed, rejected.Step)
	require.True(xcerrors.Is(rejected.Err, xcerrors.TransactionRejectedByUser))

	unknown := mustTransition(t, submitting, wizard.SubmitFailed{})
	require.True(xcerrors.Is(unknown.Err, xcerrors.UnknownError))

	awaiting := mustTransition(t, submitting, wizard.HandleCreated{Hash: testutil.TxHash(3)})
	reverted := mustTransition(t, awaiting, wizard.TxStatusChanged{Status: listener.Status{
		Kind: listener.Failed,
		Err:  xcerrors.FailedOnChainf("reverted"),
	}})
	require.Equal(wizard.StepFailed, reverted.Step)
	require.True(xcerrors.Is(reverted.Err, xcerrors.TransactionFailedOnChain))

	disconnected := mustTransition(t, awaiting, wizard.Disconnected{})
	require.Equal(wizard.StepFailed, disconnected.Step)
	require.True(xcerrors.Is(disconnected.Err, xcerrors.ConnectionUnavailable))
	require.False(disconnected.ActionEnabled())
}

func TestTransitionOutOfOrder(t *testing.T) {
	require := require.New(t)
	s := wizard.NewState(wizard.FlowStake)

	_, err := wizard.Transition(s, wizard.HandleCreated{Hash: testutil.TxHash(1)})
	require.ErrorIs(err, wizard.ErrUnexpected)
	_, err = wizard.Transition(s, wizard.SubmitFailed{})
	require.ErrorIs(err, wizard.ErrUnexpected)
	_, err = wizard.Transition(s, wizard.TxStatusChanged{Status: listener.Status{Kind: listener.Success}})
	require.ErrorIs(err, wizard.ErrUnexpected)
}

func TestSuccessKeepsCommitError(t *testing.T) {
	require := require.New(t)
	s := mustTransition(t, wizard.NewState(wizard.FlowStake),
		validInput(), wizard.Confirmed{}, wizard.HandleCreated{Hash: testutil.TxHash(1)},
		wizard.TxStatusChanged{
			Status:    listener.Status{Kind: listener.Success},
			CommitErr: xcerrors.UserInputInvalidf("negative balance"),
		})
	require.Equal(wizard.StepSuccess, s.Step)
	require.Error(s.CommitErr)
	require.Contains(wizard.Messages(s).SubMessage, "refresh")
}

func TestElements(t *testing.T) {
	require := require.New(t)
	staking := wizard.ElementsOf(wizard.FlowStake)
	require.Equal("wizard_staking", staking.Wizard)
	require.Equal("wizard_sub_step_initiate_staking_tx", staking.Initiate)
	require.Equal("wizard_sub_step_wait_for_staking_confirmation", staking.WaitForConfirm)
	require.Equal("wizard_sub_step_congratulations", staking.Congratulations)
	require.Equal("input_orbs_for_staking", staking.AmountInput)
	require.Empty(staking.GuardianInput)

	require.Equal("input_orbs_for_allowance", wizard.ElementsOf(wizard.FlowApprove).AmountInput)

	withdrawing := wizard.ElementsOf(wizard.FlowWithdraw)
	require.Equal("wizard_sub_step_initiate_withdrawing_tx", withdrawing.Initiate)
	require.Empty(withdrawing.AmountInput)

	require.Equal(staking.Initiate, staking.Element(wizard.StepSubmitting))
	require.Equal(staking.WaitForConfirm, staking.Element(wizard.StepAwaitingConfirmation))
	require.Equal(staking.Failed, staking.Element(wizard.StepFailed))
}

func TestMessages(t *testing.T) {
	require := require.New(t)
	s := wizard.NewState(wizard.FlowStake)
	require.Equal(`Press "Stake" and accept the transaction`, wizard.Messages(s).SubMessage)
	require.Equal(`Press "Withdraw" and accept the transaction`, wizard.Messages(wizard.NewState(wizard.FlowWithdraw)).SubMessage)

	s = mustTransition(t, s, validInput(), wizard.Confirmed{})
	require.Equal(wizard.PleaseApproveTxMessage, wizard.Messages(s).SubMessage)

	rejected := mustTransition(t, s, wizard.SubmitFailed{Err: xcerrors.RejectedByUserf("denied")})
	require.Equal("Transaction rejected", wizard.Messages(rejected).Message)

	invalid := mustTransition(t, wizard.NewState(wizard.FlowStake),
		wizard.InputChanged{Set: true, Err: xcerrors.UserInputInvalidf("amount is required")})
	require.Equal(wizard.Message{Message: "Invalid input", SubMessage: "amount is required"}, wizard.Messages(invalid))
}

func TestParseFlow(t *testing.T) {
	for _, flow := range wizard.Flows {
		parsed, err := wizard.ParseFlow(string(flow))
		require.NoError(t, err)
		require.Equal(t, flow, parsed)
		require.True(t, flow.Action().Valid())
	}
	_, err := wizard.ParseFlow("swap")
	require.Error(t, err)
}
