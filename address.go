package stakeboard

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is an account address on the chain, e.g. a staker or a guardian.
type Address string

// ContractAddress is a smart contract address
type ContractAddress Address

// TxHash is a hex encoded transaction hash
type TxHash string

// NormalizeAddress lowercases the address and makes sure it carries a 0x prefix.
// Lowercase is our normalized format.
func NormalizeAddress(address string) Address {
	address = strings.TrimSpace(address)
	address = strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	return Address("0x" + strings.ToLower(address))
}

func (a Address) Valid() bool {
	return common.IsHexAddress(string(a))
}

func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

func (a Address) String() string {
	return string(a)
}

// Short renders the address as 0x1234…abcd for tables and messages.
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

func (c ContractAddress) Valid() bool {
	return Address(c).Valid()
}

func NormalizeTxHash(hash string) TxHash {
	hash = strings.TrimPrefix(strings.TrimSpace(hash), "0x")
	return TxHash("0x" + strings.ToLower(hash))
}
