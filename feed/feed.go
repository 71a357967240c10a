// Package feed delivers outside updates to the account store: liquid balance
// changes, connection loss and the guardian candidate list.
package feed

import (
	"context"

	sb "github.com/cordialsys/stakeboard"
)

// BalanceFeed reports the latest liquid balance of an account, as a decimal
// string in the token's smallest unit.
type BalanceFeed interface {
	// Subscribe blocks until ctx is done, calling onChange for every update.
	Subscribe(ctx context.Context, account sb.Address, onChange func(newAmount string)) error
}

