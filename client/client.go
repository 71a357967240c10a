package client

import (
	"context"
	"time"

	sb "github.com/cordialsys/stakeboard"
)

// Client submits staking transactions and reads account state from the chain.
type Client interface {
	// Sign and broadcast a transaction. Returns as soon as the transaction is
	// handed to the network; confirmation is reported on the PendingTx.
	Submit(ctx context.Context, params sb.TxParams) (PendingTx, error)

	// Fetch balances, allowance, cooldown and guardian of an account
	FetchAccount(ctx context.Context, address sb.Address) (*Account, error)

	// Fetch only the liquid token balance of an account
	FetchLiquidBalance(ctx context.Context, address sb.Address) (sb.AmountBlockchain, error)

	// Check that the chain endpoint is reachable
	Ping(ctx context.Context) error
}

// Account is the on-chain view of a staker.
type Account struct {
	Address sb.Address `json:"address"`
	// Tokens held by the account and free to use
	Liquid sb.AmountBlockchain `json:"liquid"`
	// Tokens locked in the staking contract
	Staked sb.AmountBlockchain `json:"staked"`
	// Unstaked tokens waiting for the cooldown to elapse
	CoolingDown       sb.AmountBlockchain `json:"cooling_down"`
	CooldownReleaseAt time.Time           `json:"cooldown_release_at,omitempty"`
	// Amount the staking contract may still pull from the account
	Allowance sb.AmountBlockchain `json:"allowance"`
	// Currently selected guardian, if any
	Guardian *sb.Address `json:"guardian,omitempty"`
}
