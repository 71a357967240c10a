package stakeboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AmountBlockchain is a big integer amount in the token's smallest unit.
type AmountBlockchain big.Int

// AmountHumanReadable is a decimal amount as a human enters or reads it.
type AmountHumanReadable decimal.Decimal

var ErrNegativeAmount = errors.New("amount must not be negative")

func (amount AmountBlockchain) String() string {
	bigInt := big.Int(amount)
	return bigInt.String()
}

// Int converts an AmountBlockchain into *big.Int
func (amount AmountBlockchain) Int() *big.Int {
	bigInt := big.Int(amount)
	return &bigInt
}

func (amount AmountBlockchain) Sign() int {
	bigInt := big.Int(amount)
	return bigInt.Sign()
}

// Uint64 converts an AmountBlockchain into uint64
func (amount AmountBlockchain) Uint64() uint64 {
	bigInt := big.Int(amount)
	return bigInt.Uint64()
}

// Use the underlying big.Int.Cmp()
func (amount *AmountBlockchain) Cmp(other *AmountBlockchain) int {
	return amount.Int().Cmp(other.Int())
}

// Use the underlying big.Int.Add()
func (amount *AmountBlockchain) Add(x *AmountBlockchain) AmountBlockchain {
	sum := new(big.Int)
	sum.Set((*big.Int)(amount))
	return AmountBlockchain(*sum.Add(sum, x.Int()))
}

// Use the underlying big.Int.Sub()
func (amount *AmountBlockchain) Sub(x *AmountBlockchain) AmountBlockchain {
	diff := new(big.Int)
	diff.Set((*big.Int)(amount))
	return AmountBlockchain(*diff.Sub(diff, x.Int()))
}

// SafeSub subtracts x and refuses to go below zero.
func (amount *AmountBlockchain) SafeSub(x *AmountBlockchain) (AmountBlockchain, error) {
	diff := amount.Sub(x)
	if diff.Sign() < 0 {
		return *amount, fmt.Errorf("cannot subtract %s from %s: %w", x.String(), amount.String(), ErrNegativeAmount)
	}
	return diff, nil
}

func (amount *AmountBlockchain) Mul(x *AmountBlockchain) AmountBlockchain {
	prod := new(big.Int)
	prod.Set((*big.Int)(amount))
	return AmountBlockchain(*prod.Mul(prod, x.Int()))
}

func (amount *AmountBlockchain) Div(x *AmountBlockchain) AmountBlockchain {
	quot := new(big.Int)
	quot.Set((*big.Int)(amount))
	return AmountBlockchain(*quot.Div(quot, x.Int()))
}

var zero = big.NewInt(0)

func (amount *AmountBlockchain) IsZero() bool {
	return amount.Int().Cmp(zero) == 0
}

func (amount *AmountBlockchain) ToHuman(decimals int32) AmountHumanReadable {
	dec := decimal.NewFromBigInt(amount.Int(), -decimals)
	return AmountHumanReadable(dec)
}

// MultiplyByFloat scales an amount, e.g. to bump a gas fee.
func MultiplyByFloat(amount AmountBlockchain, multiplier float64) AmountBlockchain {
	if amount.IsZero() {
		return amount
	}
	// (1000000 * multiplier * amount) / 1000000
	precision := uint64(1000000)
	multBig := NewAmountBlockchainFromUint64(uint64(float64(precision) * multiplier))
	divBig := NewAmountBlockchainFromUint64(precision)
	product := multBig.Mul(&amount)
	return product.Div(&divBig)
}

// NewAmountBlockchainFromUint64 creates a new AmountBlockchain from a uint64
func NewAmountBlockchainFromUint64(u64 uint64) AmountBlockchain {
	bigInt := new(big.Int).SetUint64(u64)
	return AmountBlockchain(*bigInt)
}

// NewAmountBlockchainFromStr creates a new AmountBlockchain from a string.
// Invalid input yields zero.
func NewAmountBlockchainFromStr(str string) AmountBlockchain {
	bigInt, ok := new(big.Int).SetString(str, 0)
	if !ok {
		return NewAmountBlockchainFromUint64(0)
	}
	return AmountBlockchain(*bigInt)
}

// ParseAmountBlockchain is the strict variant of NewAmountBlockchainFromStr
// used for amounts coming from outside the process.
func ParseAmountBlockchain(str string) (AmountBlockchain, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return AmountBlockchain{}, errors.New("empty amount")
	}
	bigInt, ok := new(big.Int).SetString(str, 0)
	if !ok {
		return AmountBlockchain{}, fmt.Errorf("not a valid integer amount: %q", str)
	}
	if bigInt.Sign() < 0 {
		return AmountBlockchain{}, ErrNegativeAmount
	}
	return AmountBlockchain(*bigInt), nil
}

// NewAmountHumanReadableFromStr creates a new AmountHumanReadable from a string
func NewAmountHumanReadableFromStr(str string) (AmountHumanReadable, error) {
	decimal, err := decimal.NewFromString(strings.TrimSpace(str))
	return AmountHumanReadable(decimal), err
}

func NewAmountHumanReadableFromFloat(float float64) AmountHumanReadable {
	return AmountHumanReadable(decimal.NewFromFloat(float))
}

func (amount AmountHumanReadable) Decimal() decimal.Decimal {
	return decimal.Decimal(amount)
}

func (amount AmountHumanReadable) ToBlockchain(decimals int32) AmountBlockchain {
	factor := decimal.NewFromInt32(10).Pow(decimal.NewFromInt32(decimals))
	raised := ((decimal.Decimal)(amount)).Mul(factor)
	return AmountBlockchain(*raised.BigInt())
}

func (amount AmountHumanReadable) String() string {
	return decimal.Decimal(amount).String()
}

// StringFixed renders the amount with a fixed number of decimal places.
func (amount AmountHumanReadable) StringFixed(places int32) string {
	return decimal.Decimal(amount).StringFixed(places)
}

func (amount AmountHumanReadable) Sign() int {
	return decimal.Decimal(amount).Sign()
}

var _ json.Marshaler = AmountHumanReadable{}
var _ json.Unmarshaler = &AmountHumanReadable{}
var _ yaml.Unmarshaler = &AmountHumanReadable{}
var _ yaml.Marshaler = AmountHumanReadable{}
var _ yaml.IsZeroer = AmountHumanReadable{}

func (b AmountHumanReadable) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b AmountHumanReadable) IsZero() bool {
	return decimal.Decimal(b).IsZero()
}

func (b *AmountHumanReadable) UnmarshalYAML(node *yaml.Node) error {
	value := strings.Trim(strings.TrimSpace(node.Value), "\"")
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("invalid decimal amount: %v", err)
	}
	*b = AmountHumanReadable(dec)
	return nil
}

// MarshalText is used by the toml encoder.
func (b AmountHumanReadable) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b AmountHumanReadable) MarshalJSON() ([]byte, error) {
	return []byte("\"" + b.String() + "\""), nil
}

func (b *AmountHumanReadable) UnmarshalJSON(p []byte) error {
	if string(p) == "null" {
		return nil
	}
	str := strings.Trim(string(p), "\"")
	decimal, err := decimal.NewFromString(str)
	if err != nil {
		return err
	}
	*b = AmountHumanReadable(decimal)
	return nil
}

var _ json.Marshaler = AmountBlockchain{}
var _ json.Unmarshaler = &AmountBlockchain{}

func (b AmountBlockchain) MarshalJSON() ([]byte, error) {
	return []byte("\"" + b.String() + "\""), nil
}

func (b *AmountBlockchain) UnmarshalJSON(p []byte) error {
	if string(p) == "null" {
		return nil
	}
	str := strings.Trim(string(p), "\"")
	var z big.Int
	_, ok := z.SetString(str, 0)
	if !ok {
		return fmt.Errorf("not a valid big integer: %s", p)
	}
	*b = AmountBlockchain(z)
	return nil
}

var _ yaml.Marshaler = AmountBlockchain{}
var _ yaml.Unmarshaler = &AmountBlockchain{}

func (b AmountBlockchain) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *AmountBlockchain) UnmarshalYAML(node *yaml.Node) error {
	amount, err := ParseAmountBlockchain(node.Value)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %v", node.Value, err)
	}
	*b = amount
	return nil
}
