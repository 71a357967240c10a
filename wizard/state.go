package wizard

import (
	"errors"
	"fmt"

	sb "github.com/cordialsys/stakeboard"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/listener"
)

type Step string

const (
	StepInput                Step = "input"
	StepSubmitting           Step = "submitting"
	StepAwaitingConfirmation Step = "awaiting-confirmation"
	StepSuccess              Step = "success"
	StepFailed               Step = "failed"
)

var (
	// The wizard already finished; open a new one.
	ErrTerminal = errors.New("wizard has finished")
	// The event is not accepted in the current step.
	ErrUnexpected = errors.New("unexpected wizard event")
	// Confirm was requested while the input is missing or invalid.
	ErrInputNotReady = errors.New("wizard input is not ready")
)

// State of one wizard. Which fields are meaningful depends on Step.
type State struct {
	Flow Flow `json:"flow"`
	Step Step `json:"step"`

	// Raw amount as entered, and its value in the smallest unit once valid
	AmountInput string              `json:"amount_input,omitempty"`
	Amount      sb.AmountBlockchain `json:"amount"`
	Guardian    sb.Address          `json:"guardian,omitempty"`
	// Whether the user has provided everything the flow needs
	InputSet bool `json:"input_set"`
	// Validation failure of the current input; blocks the action
	InputErr error `json:"-"`

	Tx listener.Status `json:"tx"`
	// Why the wizard failed
	Err error `json:"-"`
	// Set if the store rejected the outcome of a successful transaction
	CommitErr error `json:"-"`
}

func NewState(flow Flow) State {
	return State{Flow: flow, Step: StepInput, Tx: listener.Status{Kind: listener.NotStarted}}
}

func (s State) Terminal() bool {
	return s.Step == StepSuccess || s.Step == StepFailed
}

// InputsEnabled reports whether amount/guardian fields are editable.
func (s State) InputsEnabled() bool {
	return s.Step == StepInput
}

// ActionEnabled reports whether the action button is enabled.
func (s State) ActionEnabled() bool {
	return s.Step == StepInput && s.InputSet && s.InputErr == nil
}

func (s State) Request() (action sb.Action, amount sb.AmountBlockchain, guardian sb.Address) {
	return s.Flow.Action(), s.Amount, s.Guardian
}

// Event is something that happened to a wizard.
type Event interface {
	isEvent()
}

// InputChanged carries a newly entered, already validated, input.
type InputChanged struct {
	AmountInput string
	Amount      sb.AmountBlockchain
	Guardian    sb.Address
	Set         bool
	Err         error
}

// Confirmed is the user pressing the action button.
type Confirmed struct{}

// HandleCreated means the chain client accepted the transaction.
type HandleCreated struct {
	Hash sb.TxHash
}

// SubmitFailed means no transaction was created, e.g. the user rejected it.
type SubmitFailed struct {
	Err error
}

// TxStatusChanged is a new listener status, plus the commit result on success.
type TxStatusChanged struct {
	Status    listener.Status
	CommitErr error
}

// Disconnected means the wallet/chain connection was lost.
type Disconnected struct{}

func (InputChanged) isEvent()    {}
func (Confirmed) isEvent()       {}
func (HandleCreated) isEvent()   {}
func (SubmitFailed) isEvent()    {}
func (TxStatusChanged) isEvent() {}
func (Disconnected) isEvent()    {}

// Transition is the pure wizard state machine:
//
//	Input -> Submitting -> AwaitingConfirmation -> Success | Failed
//
// Submitting can fail directly, and a lost connection fails any unfinished step.
func Transition(s State, ev Event) (State, error) {
	if s.Terminal() {
		return s, ErrTerminal
	}
	switch ev := ev.(type) {
	case InputChanged:
		if s.Step != StepInput {
			return s, fmt.Errorf("%w: input is locked in step %s", ErrUnexpected, s.Step)
		}
		s.AmountInput = ev.AmountInput
		s.Amount = ev.Amount
		s.Guardian = ev.Guardian
		s.InputSet = ev.Set
		s.InputErr = ev.Err
		return s, nil

	case Confirmed:
		if s.Step != StepInput {
			return s, fmt.Errorf("%w: confirm in step %s", ErrUnexpected, s.Step)
		}
		if !s.ActionEnabled() {
			if s.InputErr != nil {
				return s, fmt.Errorf("%w: %w", ErrInputNotReady, s.InputErr)
			}
			return s, ErrInputNotReady
		}
		s.Step = StepSubmitting
		return s, nil

	case HandleCreated:
		if s.Step != StepSubmitting {
			return s, fmt.Errorf("%w: transaction handle in step %s", ErrUnexpected, s.Step)
		}
		s.Step = StepAwaitingConfirmation
		s.Tx = listener.Status{Kind: listener.NotStarted, Hash: ev.Hash}
		return s, nil

	case SubmitFailed:
		if s.Step != StepSubmitting {
			return s, fmt.Errorf("%w: submit failure in step %s", ErrUnexpected, s.Step)
		}
		s.Step = StepFailed
		s.Err = ev.Err
		if s.Err == nil {
			s.Err = xcerrors.Unknownf("could not submit transaction")
		}
		return s, nil

	case TxStatusChanged:
		if s.Step != StepAwaitingConfirmation {
			return s, fmt.Errorf("%w: transaction status in step %s", ErrUnexpected, s.Step)
		}
		if ev.Status.Hash == "" {
			ev.Status.Hash = s.Tx.Hash
		}
		s.Tx = ev.Status
		switch ev.Status.Kind {
		case listener.Success:
			s.Step = StepSuccess
			s.CommitErr = ev.CommitErr
		case listener.Failed:
			s.Step = StepFailed
			s.Err = ev.Status.Err
		}
		return s, nil

	case Disconnected:
		s.Step = StepFailed
		s.Err = xcerrors.ConnectionUnavailablef("wallet connection lost")
		return s, nil
	}
	return s, fmt.Errorf("%w: %T", ErrUnexpected, ev)
}
