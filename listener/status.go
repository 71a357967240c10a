package listener

import (
	"fmt"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	"github.com/cordialsys/stakeboard/client/errors"
)

type Kind string

const (
	NotStarted   Kind = "not-started"
	HashReceived Kind = "hash-received"
	Confirming   Kind = "confirming"
	Success      Kind = "success"
	Failed       Kind = "failed"
)

// Status is the simplified state of a tracked transaction.
// Which fields are set depends on Kind.
type Status struct {
	Kind          Kind        `json:"kind"`
	Hash          sb.TxHash   `json:"hash,omitempty"`
	Confirmations uint64      `json:"confirmations,omitempty"`
	Receipt       *sb.Receipt `json:"receipt,omitempty"`
	Err           error       `json:"-"`
}

func (s Status) Terminal() bool {
	return s.Kind == Success || s.Kind == Failed
}

func (s Status) String() string {
	switch s.Kind {
	case HashReceived:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Hash)
	case Confirming:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Confirmations)
	case Failed:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Err)
	case "":
		return string(NotStarted)
	}
	return string(s.Kind)
}

// Transition applies one event to a status. It reports false, and returns the
// current status unchanged, when the event does not move the status: anything
// after a terminal state, repeated hashes, and confirmation counts that were
// already seen.
//
// Reaching the threshold and receiving a successful receipt are independent
// paths to Success; whichever comes first wins.
func Transition(current Status, event client.Event, threshold uint64) (Status, bool) {
	if current.Kind == "" {
		current.Kind = NotStarted
	}
	if current.Terminal() {
		return current, false
	}
	if threshold < 1 {
		threshold = 1
	}
	hash := current.Hash
	if hash == "" {
		hash = event.Hash
	}

	switch event.Kind {
	case client.EventHash:
		if current.Kind != NotStarted {
			return current, false
		}
		return Status{Kind: HashReceived, Hash: hash}, true

	case client.EventConfirmation:
		n := event.Confirmations
		if event.Receipt != nil && !event.Receipt.Succeeded {
			err := errors.FailedOnChainf("transaction %s reverted in block %d", hash, event.Receipt.BlockNumber)
			return Status{Kind: Failed, Hash: hash, Confirmations: n, Receipt: event.Receipt, Err: err}, true
		}
		if n >= threshold {
			return success(hash, n, event.Receipt), true
		}
		if current.Kind == Confirming && n <= current.Confirmations {
			return current, false
		}
		return Status{Kind: Confirming, Hash: hash, Confirmations: n}, true

	case client.EventReceipt:
		if event.Receipt != nil && !event.Receipt.Succeeded {
			err := errors.FailedOnChainf("transaction %s reverted in block %d", hash, event.Receipt.BlockNumber)
			return Status{Kind: Failed, Hash: hash, Confirmations: current.Confirmations, Receipt: event.Receipt, Err: err}, true
		}
		return success(hash, current.Confirmations, event.Receipt), true

	case client.EventError:
		err := event.Err
		if err == nil {
			err = errors.Unknownf("transaction %s failed", hash)
		}
		return Status{Kind: Failed, Hash: hash, Confirmations: current.Confirmations, Err: err}, true
	}
	return current, false
}

func success(hash sb.TxHash, confirmations uint64, receipt *sb.Receipt) Status {
	if receipt == nil {
		receipt = &sb.Receipt{TxHash: hash, Succeeded: true}
	}
	return Status{Kind: Success, Hash: hash, Confirmations: confirmations, Receipt: receipt}
}
