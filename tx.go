package stakeboard

// Action is a state-changing on-chain operation a staker can initiate.
type Action string

const (
	// Approve grants the staking contract an allowance over liquid tokens.
	Approve  Action = "approve"
	Stake    Action = "stake"
	Unstake  Action = "unstake"
	Restake  Action = "restake"
	Withdraw Action = "withdraw"
	// Delegate selects a guardian.
	Delegate Action = "delegate"
)

var Actions = []Action{Approve, Stake, Unstake, Restake, Withdraw, Delegate}

func (a Action) Valid() bool {
	for _, action := range Actions {
		if action == a {
			return true
		}
	}
	return false
}

// HasAmount reports whether the action carries a user entered amount.
func (a Action) HasAmount() bool {
	switch a {
	case Approve, Stake, Unstake:
		return true
	}
	return false
}

// TxParams is everything a chain client needs to build and submit a transaction.
type TxParams struct {
	Action   Action           `json:"action"`
	From     Address          `json:"from"`
	Amount   AmountBlockchain `json:"amount"`
	Guardian Address          `json:"guardian,omitempty"`
}

// Receipt is the finalized result of a mined transaction.
type Receipt struct {
	TxHash      TxHash `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	GasUsed     uint64 `json:"gas_used"`
	Succeeded   bool   `json:"succeeded"`
}
