package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/sirupsen/logrus"
)

var ErrStopped = errors.New("store is not running")

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	Account  sb.Address  `json:"account"`
	Balances Balances    `json:"balances"`
	Selected *sb.Address `json:"selected_guardian,omitempty"`
	// Ordered by stake, largest first
	Guardians          []Guardian          `json:"guardians"`
	TotalParticipating sb.AmountBlockchain `json:"total_participating"`
	// Incremented on every change
	Version uint64 `json:"version"`
}

func (s Snapshot) Guardian(address sb.Address) (Guardian, bool) {
	for _, g := range s.Guardians {
		if g.Address.Equal(address) {
			return g, true
		}
	}
	return Guardian{}, false
}

func (s Snapshot) IsSelected(address sb.Address) bool {
	return s.Selected != nil && s.Selected.Equal(address)
}

type Options struct {
	CooldownPeriod time.Duration
	// Defaults to time.Now
	Now func() time.Time
}

// Store owns balances and guardian selection of one account.
//
// All state lives in the goroutine started by Run; every method sends it a
// command. Balances change only through Commit (after a confirmed
// transaction), ApplyBalanceNotification and Refresh.
type Store struct {
	client   client.Client
	account  sb.Address
	cooldown time.Duration
	now      func() time.Time
	log      *logrus.Entry

	cmds chan command
	done chan struct{}
}

type command func(st *state)

type state struct {
	balances    Balances
	selected    *sb.Address
	guardians   *guardianSet
	version     uint64
	subscribers map[int]chan Snapshot
	nextSubID   int
}

func New(cli client.Client, account sb.Address, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CooldownPeriod == 0 {
		opts.CooldownPeriod = sb.DefaultCooldownPeriod
	}
	return &Store{
		client:   cli,
		account:  sb.NormalizeAddress(string(account)),
		cooldown: opts.CooldownPeriod,
		now:      opts.Now,
		log:      logrus.WithFields(logrus.Fields{"component": "store", "account": account}),
		cmds:     make(chan command),
		done:     make(chan struct{}),
	}
}

func (s *Store) Account() sb.Address {
	return s.account
}

// Run processes commands until ctx is done.
func (s *Store) Run(ctx context.Context) {
	defer close(s.done)
	st := &state{
		guardians:   newGuardianSet(nil),
		subscribers: map[int]chan Snapshot{},
	}
	for {
		select {
		case <-ctx.Done():
			for id, ch := range st.subscribers {
				close(ch)
				delete(st.subscribers, id)
			}
			return
		case cmd := <-s.cmds:
			cmd(st)
		}
	}
}

// do runs fn on the store goroutine and waits for it to finish.
func (s *Store) do(ctx context.Context, fn command) error {
	finished := make(chan struct{})
	wrapped := func(st *state) {
		defer close(finished)
		fn(st)
	}
	select {
	case s.cmds <- wrapped:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

func (s *Store) snapshot(st *state) Snapshot {
	snap := Snapshot{
		Account:            s.account,
		Balances:           st.balances,
		Guardians:          st.guardians.list(),
		TotalParticipating: st.guardians.total(),
		Version:            st.version,
	}
	if st.selected != nil {
		selected := *st.selected
		snap.Selected = &selected
	}
	return snap
}

// changed bumps the version and notifies subscribers, dropping stale
// snapshots a slow subscriber has not read yet.
func (s *Store) changed(st *state) Snapshot {
	st.version++
	snap := s.snapshot(st)
	for _, ch := range st.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	return snap
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(st *state) {
		snap = s.snapshot(st)
	})
	return snap, err
}

// Subscribe returns a channel receiving the latest snapshot after every change,
// and a function to unsubscribe. The channel is closed on unsubscribe or when the store stops.
func (s *Store) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	var id int
	err := s.do(ctx, func(st *state) {
		id = st.nextSubID
		st.nextSubID++
		st.subscribers[id] = ch
	})
	if err != nil {
		return nil, nil, err
	}
	unsubscribe := func() {
		_ = s.do(context.Background(), func(st *state) {
			if sub, ok := st.subscribers[id]; ok {
				close(sub)
				delete(st.subscribers, id)
			}
		})
	}
	return ch, unsubscribe, nil
}

// Submit sends a transaction for the account through the chain client.
// It neither waits for confirmation nor changes any balance.
func (s *Store) Submit(ctx context.Context, req Request) (client.PendingTx, error) {
	params := sb.TxParams{
		Action:   req.Action,
		From:     s.account,
		Amount:   req.Amount,
		Guardian: req.Guardian,
	}
	s.log.WithFields(logrus.Fields{
		"action":   req.Action,
		"amount":   req.Amount.String(),
		"guardian": req.Guardian,
	}).Info("submitting transaction")
	pending, err := s.client.Submit(ctx, params)
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *Store) Approve(ctx context.Context, amount sb.AmountBlockchain) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Approve, Amount: amount})
}

func (s *Store) Stake(ctx context.Context, amount sb.AmountBlockchain) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Stake, Amount: amount})
}

func (s *Store) Unstake(ctx context.Context, amount sb.AmountBlockchain) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Unstake, Amount: amount})
}

func (s *Store) Restake(ctx context.Context) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Restake})
}

func (s *Store) Withdraw(ctx context.Context) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Withdraw})
}

func (s *Store) SelectGuardian(ctx context.Context, guardian sb.Address) (client.PendingTx, error) {
	return s.Submit(ctx, Request{Action: sb.Delegate, Guardian: sb.NormalizeAddress(string(guardian))})
}

// Commit applies a confirmed outcome. An outcome that would drive a balance
// negative is rejected and nothing changes.
func (s *Store) Commit(ctx context.Context, outcome Outcome) (Snapshot, error) {
	var snap Snapshot
	var commitErr error
	err := s.do(ctx, func(st *state) {
		if outcome.Action == sb.Delegate {
			if !outcome.Guardian.Valid() {
				commitErr = xcerrors.UserInputInvalidf("invalid guardian address %q", outcome.Guardian)
				return
			}
			selected := sb.NormalizeAddress(string(outcome.Guardian))
			st.selected = &selected
			snap = s.changed(st)
			return
		}
		next, err := st.balances.apply(outcome, s.now(), s.cooldown)
		if err != nil {
			commitErr = err
			return
		}
		st.balances = next
		snap = s.changed(st)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if commitErr != nil {
		s.log.WithError(commitErr).WithField("action", outcome.Action).Error("rejected commit")
		return Snapshot{}, commitErr
	}
	s.log.WithFields(logrus.Fields{
		"action":  outcome.Action,
		"amount":  outcome.Amount.String(),
		"liquid":  snap.Balances.Liquid.String(),
		"staked":  snap.Balances.Staked.String(),
		"cooling": snap.Balances.CoolingDown.String(),
	}).Info("committed transaction")
	return snap, nil
}

// ApplyBalanceNotification overwrites the liquid balance with a value reported
// by an outside data service. The last notification wins.
func (s *Store) ApplyBalanceNotification(ctx context.Context, newAmount string) (Snapshot, error) {
	amount, err := sb.ParseAmountBlockchain(newAmount)
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid balance notification: %w", err)
	}
	var snap Snapshot
	err = s.do(ctx, func(st *state) {
		st.balances.Liquid = amount
		snap = s.changed(st)
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.log.WithField("liquid", amount.String()).Debug("balance notification")
	return snap, nil
}

// ApplyAccount overwrites balances and selection with an on-chain view.
func (s *Store) ApplyAccount(ctx context.Context, account *client.Account) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(st *state) {
		st.balances = BalancesFromAccount(account)
		if account.Guardian != nil && account.Guardian.Valid() {
			selected := sb.NormalizeAddress(string(*account.Guardian))
			st.selected = &selected
		} else {
			st.selected = nil
		}
		snap = s.changed(st)
	})
	return snap, err
}

// Refresh reloads the account from the chain. The store never does this on its own.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	account, err := s.client.FetchAccount(ctx, s.account)
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not fetch account %s: %w", s.account, err)
	}
	return s.ApplyAccount(ctx, account)
}

// SetGuardians replaces the candidate list.
func (s *Store) SetGuardians(ctx context.Context, guardians []Guardian) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(st *state) {
		st.guardians = newGuardianSet(guardians)
		snap = s.changed(st)
	})
	return snap, err
}
