package store

import (
	"strings"

	sb "github.com/cordialsys/stakeboard"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// Guardian is a delegate candidate.
type Guardian struct {
	Name    string              `json:"name" yaml:"name"`
	Address sb.Address          `json:"address" yaml:"address"`
	Website string              `json:"website,omitempty" yaml:"website,omitempty"`
	Stake   sb.AmountBlockchain `json:"stake" yaml:"stake"`
	// Whether the guardian voted in the current election
	Voted bool `json:"voted" yaml:"voted"`
}

// guardianLess orders by stake descending, then by address.
func guardianLess(a, b Guardian) bool {
	if c := a.Stake.Cmp(&b.Stake); c != 0 {
		return c > 0
	}
	return strings.ToLower(string(a.Address)) < strings.ToLower(string(b.Address))
}

// guardianSet keeps candidates ordered for display and indexed by address.
type guardianSet struct {
	ordered   *btree.BTreeG[Guardian]
	byAddress map[sb.Address]Guardian
}

func newGuardianSet(guardians []Guardian) *guardianSet {
	set := &guardianSet{
		ordered:   btree.NewBTreeG(guardianLess),
		byAddress: map[sb.Address]Guardian{},
	}
	for _, g := range guardians {
		set.upsert(g)
	}
	return set
}

func (set *guardianSet) upsert(g Guardian) {
	g.Address = sb.NormalizeAddress(string(g.Address))
	if existing, ok := set.byAddress[g.Address]; ok {
		set.ordered.Delete(existing)
	}
	set.byAddress[g.Address] = g
	set.ordered.Set(g)
}

func (set *guardianSet) list() []Guardian {
	out := make([]Guardian, 0, set.ordered.Len())
	set.ordered.Scan(func(g Guardian) bool {
		out = append(out, g)
		return true
	})
	return out
}

func (set *guardianSet) total() sb.AmountBlockchain {
	total := sb.NewAmountBlockchainFromUint64(0)
	set.ordered.Scan(func(g Guardian) bool {
		total = total.Add(&g.Stake)
		return true
	})
	return total
}

// StakeShare is the guardian's percentage of the total participating stake.
func StakeShare(stake sb.AmountBlockchain, total sb.AmountBlockchain) decimal.Decimal {
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(stake.Int(), 0).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromBigInt(total.Int(), 0), 4)
}
