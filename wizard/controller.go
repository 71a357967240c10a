package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/listener"
	"github.com/cordialsys/stakeboard/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("wizard is closed")

// Store is the part of the account store a wizard needs.
type Store interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
	Submit(ctx context.Context, req store.Request) (client.PendingTx, error)
	Commit(ctx context.Context, outcome store.Outcome) (store.Snapshot, error)
}

var _ Store = &store.Store{}

type Options struct {
	// Confirmations needed for success; below 1 means 1
	Threshold uint64
	Decimals  int32
	Now       func() time.Time
	// Called after every state change, never while the controller is locked.
	// It may run on the listener goroutine and must not call Close.
	OnChange func(id string, state State)
}

// Controller drives one open wizard. It owns at most one pending transaction.
type Controller struct {
	id    string
	flow  Flow
	store Store
	opts  Options
	log   *logrus.Entry

	mu       sync.Mutex
	state    State
	listener *listener.Listener
	closed   bool
	// closed and replaced on every change
	changed chan struct{}
}

func New(flow Flow, st Store, opts Options) *Controller {
	if opts.Threshold < 1 {
		opts.Threshold = 1
	}
	if opts.Decimals == 0 {
		opts.Decimals = sb.DefaultDecimals
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id := uuid.NewString()
	return &Controller{
		id:      id,
		flow:    flow,
		store:   st,
		opts:    opts,
		state:   NewState(flow),
		changed: make(chan struct{}),
		log: logrus.WithFields(logrus.Fields{
			"component": "wizard",
			"wizard":    id,
			"flow":      flow,
		}),
	}
}

// Open creates a controller and, for flows without user input, validates the
// account right away so the action can be enabled.
func Open(ctx context.Context, flow Flow, st Store, opts Options) (*Controller, error) {
	c := New(flow, st, opts)
	if !flow.TakesAmount() && !flow.TakesGuardian() {
		if _, err := c.SetInput(ctx, Input{}); err != nil && !xcerrors.Is(err, xcerrors.UserInputInvalid) {
			return nil, err
		}
	}
	return c, nil
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Flow() Flow {
	return c.flow
}

func (c *Controller) Threshold() uint64 {
	return c.opts.Threshold
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SetAmount(ctx context.Context, amount string) (State, error) {
	return c.SetInput(ctx, Input{Amount: amount})
}

func (c *Controller) SetGuardian(ctx context.Context, guardian sb.Address) (State, error) {
	return c.SetInput(ctx, Input{Guardian: sb.NormalizeAddress(string(guardian))})
}

// SetInput validates input against the current account state and records it.
// The returned error is either a validation error, which is also kept in
// State.InputErr, or a reason the input could not be accepted at all.
func (c *Controller) SetInput(ctx context.Context, input Input) (State, error) {
	if s, err := c.checkOpen(); err != nil {
		return s, err
	}
	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return c.State(), err
	}
	amount, validationErr := Validate(c.flow, input, snap, c.opts.Decimals, c.opts.Now())
	next, err := c.apply(InputChanged{
		AmountInput: input.Amount,
		Amount:      amount,
		Guardian:    input.Guardian,
		Set:         true,
		Err:         validationErr,
	})
	if err != nil {
		return next, err
	}
	return next, validationErr
}

// Submit sends the transaction and starts tracking it. It returns once the
// transaction is created; use Wait to block until it is final.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	state, err := c.apply(Confirmed{})
	if err != nil {
		return state, err
	}
	action, amount, guardian := state.Request()
	req := store.Request{Action: action, Amount: amount, Guardian: guardian}
	var before *store.Balances
	if snap, err := c.store.Snapshot(ctx); err == nil {
		before = &snap.Balances
	}

	pending, submitErr := c.store.Submit(ctx, req)

	c.mu.Lock()
	if c.closed || c.state.Terminal() {
		state := c.state
		c.mu.Unlock()
		if pending != nil {
			pending.Close()
		}
		if c.closed {
			return state, ErrClosed
		}
		return state, state.Err
	}
	if submitErr != nil {
		c.mu.Unlock()
		c.log.WithError(submitErr).Warn("transaction was not created")
		state, _ := c.apply(SubmitFailed{Err: submitErr})
		return state, submitErr
	}
	next, err := Transition(c.state, HandleCreated{Hash: pending.Hash()})
	if err != nil {
		c.mu.Unlock()
		pending.Close()
		return next, err
	}
	c.setLocked(next)
	l := listener.New(pending, c.opts.Threshold, func(status listener.Status) {
		c.onTxStatus(store.Outcome{Request: req, Before: before}, status)
	})
	c.listener = l
	c.mu.Unlock()

	c.log.WithField("tx", pending.Hash()).Info("transaction created")
	c.notify(next)
	// the listener outlives the request that submitted the transaction
	l.Start(context.Background())
	return next, nil
}

// onTxStatus runs on the listener goroutine. A success is committed to the
// store before the wizard shows it.
func (c *Controller) onTxStatus(outcome store.Outcome, status listener.Status) {
	c.mu.Lock()
	if c.closed || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	var commitErr error
	if status.Kind == listener.Success {
		outcome.Receipt = status.Receipt
		_, commitErr = c.store.Commit(context.Background(), outcome)
		if commitErr != nil {
			c.log.WithError(commitErr).Error("could not commit confirmed transaction")
		}
	}
	state, err := c.apply(TxStatusChanged{Status: status, CommitErr: commitErr})
	if err != nil {
		c.log.WithError(err).Debug("dropped transaction status")
		return
	}
	if state.Terminal() {
		log := c.log.WithField("step", state.Step)
		if state.Err != nil {
			log = log.WithError(state.Err)
		}
		log.Info("wizard finished")
	}
}

// Disconnect fails the wizard because the wallet connection was lost.
func (c *Controller) Disconnect() State {
	state, err := c.apply(Disconnected{})
	if err != nil {
		return state
	}
	c.log.Warn("wallet disconnected")
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l != nil {
		l.Close()
	}
	return state
}

// Close discards the wizard and stops listening to its transaction. A
// transaction already sent stays on chain.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	l := c.listener
	close(c.changed)
	c.mu.Unlock()

	if l != nil {
		l.Close()
	}
	c.log.Debug("closed")
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Wait blocks until the wizard reached Success or Failed, or is closed.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		state, closed, changed := c.state, c.closed, c.changed
		c.mu.Unlock()
		if state.Terminal() {
			return state, nil
		}
		if closed {
			return state, ErrClosed
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

func (c *Controller) checkOpen() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state, ErrClosed
	}
	return c.state, nil
}

func (c *Controller) apply(ev Event) (State, error) {
	c.mu.Lock()
	if c.closed {
		state := c.state
		c.mu.Unlock()
		return state, ErrClosed
	}
	next, err := Transition(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return next, err
	}
	c.setLocked(next)
	c.mu.Unlock()
	c.notify(next)
	return next, nil
}

func (c *Controller) setLocked(next State) {
	c.state = next
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) notify(state State) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.id, state)
	}
}
