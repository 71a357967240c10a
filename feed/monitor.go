package feed

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger is implemented by client.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionMonitor pings the chain and reports when the connection is lost
// or comes back.
type ConnectionMonitor struct {
	pinger   Pinger
	interval time.Duration
	// consecutive failed pings before the connection counts as lost
	failures int

	OnLost     func(err error)
	OnRestored func()

	mu        sync.Mutex
	connected bool
}

func NewConnectionMonitor(pinger Pinger, interval time.Duration, failures int) *ConnectionMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if failures < 1 {
		failures = 1
	}
	return &ConnectionMonitor{pinger: pinger, interval: interval, failures: failures, connected: true}
}

func (m *ConnectionMonitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Run pings until ctx is done.
func (m *ConnectionMonitor) Run(ctx context.Context) {
	log := logrus.WithField("component", "connection-monitor")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	failed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pingCtx, cancel := context.WithTimeout(ctx, m.interval)
		err := m.pinger.Ping(pingCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			failed = 0
			if m.set(true) {
				log.Info("connection restored")
				if m.OnRestored != nil {
					m.OnRestored()
				}
			}
			continue
		}
		failed++
		log.WithError(err).WithField("failures", failed).Debug("ping failed")
		if failed >= m.failures && m.set(false) {
			log.WithError(err).Warn("connection lost")
			if m.OnLost != nil {
				m.OnLost(err)
			}
		}
	}
}

// set reports whether the state changed.
func (m *ConnectionMonitor) set(connected bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.connected != connected
	m.connected = connected
	return changed
}
