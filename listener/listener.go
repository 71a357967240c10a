package listener

import (
	"context"
	"sync"

	"github.com/cordialsys/stakeboard/client"
	"github.com/sirupsen/logrus"
)

// Callback is invoked once for every status the listener enters.
type Callback func(Status)

// Listener tracks one pending transaction until it succeeds or fails.
//
// Events are consumed by a single goroutine and callbacks are invoked from it,
// in order. Close must not be called from inside the callback.
type Listener struct {
	handle    client.PendingTx
	threshold uint64
	onStatus  Callback
	log       *logrus.Entry

	mu      sync.Mutex
	status  Status
	closed  bool
	started bool
	cancel  context.CancelFunc

	done chan struct{}
}

// New creates a listener for handle. A threshold below 1 is treated as 1.
// onStatus may be nil.
func New(handle client.PendingTx, threshold uint64, onStatus Callback) *Listener {
	if threshold < 1 {
		threshold = 1
	}
	if onStatus == nil {
		onStatus = func(Status) {}
	}
	return &Listener{
		handle:    handle,
		threshold: threshold,
		onStatus:  onStatus,
		status:    Status{Kind: NotStarted},
		done:      make(chan struct{}),
		log: logrus.WithFields(logrus.Fields{
			"component": "listener",
			"tx":        handle.Hash(),
		}),
	}
}

// Start subscribes to the handle. Calling it more than once, or after Close, does nothing.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.closed {
		return
	}
	l.started = true
	ctx, l.cancel = context.WithCancel(ctx)

	l.log.WithField("threshold", l.threshold).Debug("subscribing to transaction events")
	go l.run(ctx)
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	defer l.handle.Close()

	events := l.handle.Events()
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("unsubscribed")
			return
		case ev, ok := <-events:
			if !ok {
				l.log.WithField("status", l.Status().String()).Warn("transaction events ended before a final status")
				return
			}
			if l.apply(ev) {
				return
			}
		}
	}
}

// apply returns true once the listener should stop.
func (l *Listener) apply(ev client.Event) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return true
	}
	next, changed := Transition(l.status, ev, l.threshold)
	if changed {
		l.status = next
	}
	l.mu.Unlock()

	if !changed {
		l.log.WithField("event", ev.String()).Trace("ignoring event")
		return false
	}
	log := l.log.WithField("status", next.String())
	if next.Kind == Failed {
		log = log.WithError(next.Err)
	}
	log.Debug("transaction status")
	l.onStatus(next)
	return next.Terminal()
}

func (l *Listener) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Listener) Threshold() uint64 {
	return l.threshold
}

// Done is closed once the listener stopped consuming events.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the listener stops or ctx is done, and returns the last status.
func (l *Listener) Wait(ctx context.Context) (Status, error) {
	select {
	case <-l.done:
		return l.Status(), nil
	case <-ctx.Done():
		return l.Status(), ctx.Err()
	}
}

// Close unsubscribes and releases the handle. No callback is invoked once Close
// returns. The transaction itself is left alone. Calling Close from the
// callback deadlocks.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	started := l.started
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	if !started {
		l.handle.Close()
		close(l.done)
		return
	}
	// wait out a callback that is already running and the release of the handle
	<-l.done
}
