package wizard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/listener"
	"github.com/cordialsys/stakeboard/store"
	"github.com/cordialsys/stakeboard/testutil"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ControllerTestSuite struct {
	suite.Suite
	Ctx    context.Context
	cancel context.CancelFunc
	client *testutil.MockedClient
	store  *store.Store

	mu    sync.Mutex
	steps []wizard.Step
}

func (s *ControllerTestSuite) SetupTest() {
	s.Ctx, s.cancel = context.WithCancel(context.Background())
	s.client = &testutil.MockedClient{}
	s.store = store.New(s.client, testutil.Address(1), store.Options{
		CooldownPeriod: 14 * 24 * time.Hour,
		Now:            func() time.Time { return now },
	})
	go s.store.Run(s.Ctx)
	s.steps = nil

	selected := testutil.Address(7)
	_, err := s.store.ApplyAccount(s.Ctx, &client.Account{
		Address:           testutil.Address(1),
		Liquid:            testutil.Amount(10_000),
		Staked:            testutil.Amount(5_000),
		CoolingDown:       testutil.Amount(1_000),
		Allowance:         testutil.Amount(8_000),
		CooldownReleaseAt: now.Add(-time.Hour),
		Guardian:          &selected,
	})
	s.Require().NoError(err)
}

func (s *ControllerTestSuite) TearDownTest() {
	s.cancel()
}

func TestController(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) open(flow wizard.Flow) *wizard.Controller {
	c, err := wizard.Open(s.Ctx, flow, s.store, wizard.Options{
		Threshold: 6,
		Decimals:  2,
		Now:       func() time.Time { return now },
		OnChange: func(id string, state wizard.State) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.steps = append(s.steps, state.Step)
		},
	})
	s.Require().NoError(err)
	return c
}

func (s *ControllerTestSuite) expectSubmit(action sb.Action, pending client.PendingTx, err error) {
	s.client.On("Submit", mock.Anything, mock.MatchedBy(func(p sb.TxParams) bool {
		return p.Action == action && p.From.Equal(testutil.Address(1))
	})).Return(pending, err).Once()
}

func (s *ControllerTestSuite) wait(c *wizard.Controller) wizard.State {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()
	state, err := c.Wait(ctx)
	s.Require().NoError(err)
	return state
}

func (s *ControllerTestSuite) balances() store.Balances {
	snap, err := s.store.Snapshot(s.Ctx)
	s.Require().NoError(err)
	return snap.Balances
}

func (s *ControllerTestSuite) TestStakeCommitsOnSuccess() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(1))
	s.expectSubmit(sb.Stake, pending, nil)

	c := s.open(wizard.FlowStake)
	state, err := c.SetAmount(s.Ctx, "70")
	require.NoError(err)
	require.True(state.ActionEnabled())

	state, err = c.Submit(s.Ctx)
	require.NoError(err)
	require.Equal(wizard.StepAwaitingConfirmation, state.Step)
	require.False(state.InputsEnabled())
	require.Equal(testutil.TxHash(1), state.Tx.Hash)

	pending.EmitHash()
	for i := uint64(1); i <= 5; i++ {
		pending.EmitConfirmation(i)
	}
	require.Eventually(func() bool {
		return c.State().Tx.Confirmations == 5
	}, 5*time.Second, 5*time.Millisecond)
	// nothing moves before success
	require.Equal("10000", s.balances().Liquid.String())

	pending.EmitConfirmation(6)
	state = s.wait(c)
	require.Equal(wizard.StepSuccess, state.Step)
	require.Equal(listener.Success, state.Tx.Kind)
	require.NoError(state.CommitErr)

	balances := s.balances()
	require.Equal("3000", balances.Liquid.String())
	require.Equal("12000", balances.Staked.String())
	require.Equal("1000", balances.Allowance.String())
	require.Eventually(pending.Closed, 5*time.Second, 5*time.Millisecond)

	s.mu.Lock()
	require.Equal(wizard.StepInput, s.steps[0])
	require.Contains(s.steps, wizard.StepSubmitting)
	require.Equal(wizard.StepSuccess, s.steps[len(s.steps)-1])
	s.mu.Unlock()
	s.client.AssertExpectations(s.T())
}

func (s *ControllerTestSuite) TestBalanceNotificationBeforeThreshold() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(2))
	s.expectSubmit(sb.Stake, pending, nil)

	c := s.open(wizard.FlowStake)
	_, err := c.SetAmount(s.Ctx, "70")
	require.NoError(err)
	_, err = c.Submit(s.Ctx)
	require.NoError(err)

	pending.EmitHash()
	pending.EmitConfirmation(1)
	require.Eventually(func() bool {
		return c.State().Tx.Confirmations == 1
	}, 5*time.Second, 5*time.Millisecond)

	// the balance feed reports the mined stake
	_, err = s.store.ApplyBalanceNotification(s.Ctx, "3000")
	require.NoError(err)

	pending.EmitConfirmation(6)
	state := s.wait(c)
	require.Equal(wizard.StepSuccess, state.Step)
	require.NoError(state.CommitErr)

	balances := s.balances()
	require.Equal("3000", balances.Liquid.String())
	require.Equal("12000", balances.Staked.String())
	require.Equal("1000", balances.CoolingDown.String())
}

func (s *ControllerTestSuite) TestRevertLeavesStoreUntouched() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(2))
	s.expectSubmit(sb.Unstake, pending, nil)

	c := s.open(wizard.FlowUnstake)
	_, err := c.SetAmount(s.Ctx, "20")
	require.NoError(err)
	_, err = c.Submit(s.Ctx)
	require.NoError(err)

	pending.EmitHash()
	pending.EmitReceipt(false)
	state := s.wait(c)
	require.Equal(wizard.StepFailed, state.Step)
	require.True(xcerrors.Is(state.Err, xcerrors.TransactionFailedOnChain))
	require.Equal("Transaction failed", wizard.Messages(state).Message)

	balances := s.balances()
	require.Equal("5000", balances.Staked.String())
	require.Equal("1000", balances.CoolingDown.String())
}

func (s *ControllerTestSuite) TestUserRejects() {
	require := s.Require()
	s.expectSubmit(sb.Withdraw, nil, xcerrors.RejectedByUserf("user denied transaction signature"))

	c := s.open(wizard.FlowWithdraw)
	require.True(c.State().ActionEnabled())
	state, err := c.Submit(s.Ctx)
	require.Error(err)
	require.Equal(wizard.StepFailed, state.Step)
	require.True(xcerrors.Is(state.Err, xcerrors.TransactionRejectedByUser))

	// a failed wizard stays failed
	_, err = c.Submit(s.Ctx)
	require.ErrorIs(err, wizard.ErrTerminal)
	require.Equal("1000", s.balances().CoolingDown.String())
}

func (s *ControllerTestSuite) TestWithdrawBeforeCooldownIsBlocked() {
	require := s.Require()
	_, err := s.store.ApplyAccount(s.Ctx, &client.Account{
		Liquid:            testutil.Amount(0),
		Staked:            testutil.Amount(0),
		CoolingDown:       testutil.Amount(1_000),
		Allowance:         testutil.Amount(0),
		CooldownReleaseAt: now.Add(time.Hour),
	})
	require.NoError(err)

	c := s.open(wizard.FlowWithdraw)
	state := c.State()
	require.False(state.ActionEnabled())
	require.True(xcerrors.Is(state.InputErr, xcerrors.UserInputInvalid))

	_, err = c.Submit(s.Ctx)
	require.ErrorIs(err, wizard.ErrInputNotReady)
	s.client.AssertNotCalled(s.T(), "Submit", mock.Anything, mock.Anything)
}

func (s *ControllerTestSuite) TestInvalidAmountBlocksAction() {
	require := s.Require()
	c := s.open(wizard.FlowStake)

	state, err := c.SetAmount(s.Ctx, "1000")
	require.True(xcerrors.Is(err, xcerrors.UserInputInvalid))
	require.False(state.ActionEnabled())
	require.True(state.InputsEnabled())

	state, err = c.SetAmount(s.Ctx, "10")
	require.NoError(err)
	require.True(state.ActionEnabled())
	require.Equal("1000", state.Amount.String())
}

func (s *ControllerTestSuite) TestCloseUnsubscribes() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(3))
	s.expectSubmit(sb.Stake, pending, nil)

	c := s.open(wizard.FlowStake)
	_, err := c.SetAmount(s.Ctx, "10")
	require.NoError(err)
	_, err = c.Submit(s.Ctx)
	require.NoError(err)
	pending.EmitHash()

	c.Close()
	require.True(c.Closed())
	require.True(pending.Closed())
	require.False(pending.EmitConfirmation(6))

	_, err = c.Wait(s.Ctx)
	require.ErrorIs(err, wizard.ErrClosed)
	_, err = c.SetAmount(s.Ctx, "1")
	require.ErrorIs(err, wizard.ErrClosed)
	require.Equal("10000", s.balances().Liquid.String())

	// closing twice is fine
	c.Close()
}

func (s *ControllerTestSuite) TestDisconnectFailsWizard() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(4))
	s.expectSubmit(sb.Restake, pending, nil)

	c := s.open(wizard.FlowRestake)
	_, err := c.Submit(s.Ctx)
	require.NoError(err)
	pending.EmitHash()

	state := c.Disconnect()
	require.Equal(wizard.StepFailed, state.Step)
	require.True(xcerrors.Is(state.Err, xcerrors.ConnectionUnavailable))
	require.False(state.ActionEnabled())
	require.True(pending.Closed())

	require.False(pending.EmitConfirmation(6))
	require.Equal(wizard.StepFailed, c.State().Step)
	require.Equal("1000", s.balances().CoolingDown.String())
}

func (s *ControllerTestSuite) TestGuardianChange() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(5))
	s.expectSubmit(sb.Delegate, pending, nil)

	c := s.open(wizard.FlowGuardianChange)
	_, err := c.SetGuardian(s.Ctx, testutil.Address(7))
	require.ErrorContains(err, "already selected")

	state, err := c.SetGuardian(s.Ctx, testutil.Address(8))
	require.NoError(err)
	require.True(state.ActionEnabled())
	_, err = c.Submit(s.Ctx)
	require.NoError(err)

	pending.EmitReceipt(true)
	state = s.wait(c)
	require.Equal(wizard.StepSuccess, state.Step)

	snap, err := s.store.Snapshot(s.Ctx)
	require.NoError(err)
	require.True(snap.IsSelected(testutil.Address(8)))
}

func (s *ControllerTestSuite) TestNoTimeout() {
	require := s.Require()
	pending := testutil.NewPendingTx(testutil.TxHash(6))
	s.expectSubmit(sb.Stake, pending, nil)

	c := s.open(wizard.FlowStake)
	_, err := c.SetAmount(s.Ctx, "10")
	require.NoError(err)
	_, err = c.Submit(s.Ctx)
	require.NoError(err)
	pending.EmitHash()

	ctx, cancel := context.WithTimeout(s.Ctx, 50*time.Millisecond)
	defer cancel()
	state, err := c.Wait(ctx)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Equal(wizard.StepAwaitingConfirmation, state.Step)
	require.False(pending.Closed())
	c.Close()
}
