package testutil

import (
	"sync"
	"sync/atomic"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
)

// PendingTx is a scripted client.PendingTx. Tests push lifecycle events with Emit.
type PendingTx struct {
	hash   sb.TxHash
	events chan client.Event

	closeOnce  sync.Once
	closed     chan struct{}
	closeCalls atomic.Int32

	finishOnce sync.Once
}

var _ client.PendingTx = &PendingTx{}

func NewPendingTx(hash sb.TxHash) *PendingTx {
	return &PendingTx{
		hash:   hash,
		events: make(chan client.Event, 64),
		closed: make(chan struct{}),
	}
}

func (p *PendingTx) Hash() sb.TxHash {
	return p.hash
}

func (p *PendingTx) Events() <-chan client.Event {
	return p.events
}

func (p *PendingTx) Close() {
	p.closeCalls.Add(1)
	p.closeOnce.Do(func() {
		close(p.closed)
	})
}

// Closed reports whether the consumer released the handle.
func (p *PendingTx) Closed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *PendingTx) CloseCalls() int {
	return int(p.closeCalls.Load())
}

// Emit queues an event. It reports false once the handle has been released.
func (p *PendingTx) Emit(ev client.Event) bool {
	if p.Closed() {
		return false
	}
	select {
	case <-p.closed:
		return false
	case p.events <- ev:
		return true
	}
}

func (p *PendingTx) EmitHash() bool {
	return p.Emit(client.HashEvent(p.hash))
}

func (p *PendingTx) EmitConfirmation(n uint64) bool {
	return p.Emit(client.ConfirmationEvent(p.hash, n))
}

func (p *PendingTx) EmitReceipt(succeeded bool) bool {
	return p.Emit(client.ReceiptEvent(sb.Receipt{TxHash: p.hash, BlockNumber: 100, Succeeded: succeeded}))
}

func (p *PendingTx) EmitError(err error) bool {
	return p.Emit(client.ErrorEvent(p.hash, err))
}

// Finish closes the event channel, as a chain client does when it stops tracking.
func (p *PendingTx) Finish() {
	p.finishOnce.Do(func() {
		close(p.events)
	})
}
