package evm

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// pendingTx polls for the receipt of a broadcast transaction and reports
// confirmations until the receipt is final.
type pendingTx struct {
	cli    *Client
	hash   sb.TxHash
	// the transaction as a call, replayed to read a revert reason
	replay ethereum.CallMsg
	events chan client.Event
	cancel context.CancelFunc
	once   sync.Once
	log    *logrus.Entry
}

var _ client.PendingTx = &pendingTx{}

func newPendingTx(cli *Client, hash sb.TxHash, replay ethereum.CallMsg) *pendingTx {
	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingTx{
		cli:    cli,
		hash:   hash,
		replay: replay,
		events: make(chan client.Event, 16),
		cancel: cancel,
		log:    cli.log.WithField("tx", hash),
	}
	go p.poll(ctx)
	return p
}

func (p *pendingTx) Hash() sb.TxHash {
	return p.hash
}

func (p *pendingTx) Events() <-chan client.Event {
	return p.events
}

func (p *pendingTx) Close() {
	p.once.Do(p.cancel)
}

func (p *pendingTx) emit(ctx context.Context, ev client.Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *pendingTx) poll(ctx context.Context) {
	defer close(p.events)
	if !p.emit(ctx, client.HashEvent(p.hash)) {
		return
	}

	interval := p.cli.chain.PollInterval
	if interval <= 0 {
		interval = sb.DefaultPollInterval
	}
	final := uint64(p.cli.chain.Confirmations.Final)
	if final < 1 {
		final = sb.DefaultConfirmationsFinal
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var reported uint64
	failures := 0
	for {
		confirmations, receipt, err := p.check(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			failures++
			p.log.WithError(err).WithField("failures", failures).Warn("could not poll transaction")
			if failures >= p.cli.MaxRPCFailures {
				p.emit(ctx, client.ErrorEvent(p.hash, xcerrors.ConnectionUnavailablef("lost track of transaction %s: %v", p.hash, err)))
				return
			}
		case receipt == nil:
			failures = 0
		case !receipt.Succeeded:
			reason := p.revertReason(ctx, receipt.BlockNumber)
			p.log.WithField("reason", reason).Warn("transaction reverted")
			ev := client.ErrorEvent(p.hash, xcerrors.FailedOnChainf("transaction %s reverted in block %d: %s", p.hash, receipt.BlockNumber, reason))
			ev.Receipt = receipt
			p.emit(ctx, ev)
			return
		default:
			failures = 0
			if confirmations >= final {
				p.emit(ctx, client.ReceiptEvent(*receipt))
				return
			}
			if confirmations > reported {
				reported = confirmations
				ev := client.ConfirmationEvent(p.hash, confirmations)
				ev.Receipt = receipt
				if !p.emit(ctx, ev) {
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// check returns the number of confirmations and the receipt, or a nil
// receipt while the transaction is not mined.
func (p *pendingTx) check(ctx context.Context) (uint64, *sb.Receipt, error) {
	if err := p.cli.wait(ctx); err != nil {
		return 0, nil, err
	}
	receipt, err := p.cli.backend.TransactionReceipt(ctx, common.HexToHash(string(p.hash)))
	if errors.Is(err, ethereum.NotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	if receipt == nil || receipt.BlockNumber == nil {
		return 0, nil, nil
	}
	head, err := p.cli.backend.BlockNumber(ctx)
	if err != nil {
		return 0, nil, err
	}
	mined := receipt.BlockNumber.Uint64()
	var confirmations uint64
	if head >= mined {
		// the block that includes the tx counts as the first confirmation
		confirmations = head - mined + 1
	}
	return confirmations, &sb.Receipt{
		TxHash:      p.hash,
		BlockNumber: mined,
		BlockHash:   receipt.BlockHash.Hex(),
		GasUsed:     receipt.GasUsed,
		Succeeded:   receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

// revertReason replays the transaction as a call at the block it was mined in.
func (p *pendingTx) revertReason(ctx context.Context, block uint64) string {
	if err := p.cli.wait(ctx); err != nil {
		return "unknown revert reason"
	}
	_, err := p.cli.backend.CallContract(ctx, p.replay, new(big.Int).SetUint64(block))
	if err == nil {
		return "unknown revert reason"
	}
	msg := err.Error()
	if _, reason, ok := strings.Cut(msg, "execution reverted:"); ok {
		return strings.TrimSpace(reason)
	}
	return msg
}
