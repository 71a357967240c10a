package testutil

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	sb "github.com/cordialsys/stakeboard"
)

func FromHex(s string) []byte {
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		panic(err)
	}
	return bz
}

func FromTimeStamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	if strings.HasSuffix(ts, "Z") {
		// use UTC timezone
		t = t.UTC()
	}
	return t
}

func HumanToBlockchain(amount string, decimals int) sb.AmountBlockchain {
	h, err := sb.NewAmountHumanReadableFromStr(amount)
	if err != nil {
		panic(err)
	}
	return h.ToBlockchain(int32(decimals))
}

// Amount is a short hand for whole token amounts in tests.
func Amount(u64 uint64) sb.AmountBlockchain {
	return sb.NewAmountBlockchainFromUint64(u64)
}

// Address returns a deterministic, valid address for index i.
func Address(i int) sb.Address {
	return sb.NormalizeAddress(fmt.Sprintf("%040x", i))
}

// TxHash returns a deterministic transaction hash for index i.
func TxHash(i int) sb.TxHash {
	return sb.NormalizeTxHash(fmt.Sprintf("%064x", i))
}
