package feed

import (
	"context"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// BalanceFetcher is implemented by client.Client.
type BalanceFetcher interface {
	FetchLiquidBalance(ctx context.Context, address sb.Address) (sb.AmountBlockchain, error)
}

// PollFeed reads the balance from the chain at an interval and reports changes.
type PollFeed struct {
	client   BalanceFetcher
	interval time.Duration
	limiter  *rate.Limiter
}

var _ BalanceFeed = &PollFeed{}

// NewPollFeed polls every interval. limiter may be shared with other chain
// readers; nil means no limit.
func NewPollFeed(client BalanceFetcher, interval time.Duration, limiter *rate.Limiter) *PollFeed {
	if interval <= 0 {
		interval = sb.DefaultPollInterval
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &PollFeed{client: client, interval: interval, limiter: limiter}
}

func (f *PollFeed) Subscribe(ctx context.Context, account sb.Address, onChange func(newAmount string)) error {
	log := logrus.WithFields(logrus.Fields{"component": "poll-feed", "account": account})
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	last := ""
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil
		}
		balance, err := f.client.FetchLiquidBalance(ctx, account)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Debug("could not fetch balance")
		} else if current := balance.String(); current != last {
			last = current
			onChange(current)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
