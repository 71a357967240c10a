package client

import (
	"fmt"

	sb "github.com/cordialsys/stakeboard"
)

type EventKind string

const (
	// The transaction hash is known
	EventHash EventKind = "hash"
	// Another block was mined on top of the transaction
	EventConfirmation EventKind = "confirmation"
	// The receipt is finalized
	EventReceipt EventKind = "receipt"
	// The transaction failed, or can no longer be tracked
	EventError EventKind = "error"
)

// Event is one lifecycle notification of an in-flight transaction.
type Event struct {
	Kind          EventKind   `json:"kind"`
	Hash          sb.TxHash   `json:"hash,omitempty"`
	Confirmations uint64      `json:"confirmations,omitempty"`
	Receipt       *sb.Receipt `json:"receipt,omitempty"`
	Err           error       `json:"-"`
}

func HashEvent(hash sb.TxHash) Event {
	return Event{Kind: EventHash, Hash: hash}
}

func ConfirmationEvent(hash sb.TxHash, confirmations uint64) Event {
	return Event{Kind: EventConfirmation, Hash: hash, Confirmations: confirmations}
}

func ReceiptEvent(receipt sb.Receipt) Event {
	return Event{Kind: EventReceipt, Hash: receipt.TxHash, Receipt: &receipt}
}

func ErrorEvent(hash sb.TxHash, err error) Event {
	return Event{Kind: EventError, Hash: hash, Err: err}
}

func (e Event) String() string {
	switch e.Kind {
	case EventConfirmation:
		return fmt.Sprintf("confirmation(%d)", e.Confirmations)
	case EventError:
		return fmt.Sprintf("error(%v)", e.Err)
	case EventHash:
		return fmt.Sprintf("hash(%s)", e.Hash)
	}
	return string(e.Kind)
}

// PendingTx is a handle to a broadcast transaction.
//
// Events are delivered in order on a single channel which is closed once the
// handle stops producing events. Close releases the handle; it is safe to call
// more than once and from any goroutine. Closing does not cancel the
// transaction on chain.
type PendingTx interface {
	Hash() sb.TxHash
	Events() <-chan Event
	Close()
}
