package stakeboard_test

import (
	"encoding/json"

	. "github.com/cordialsys/stakeboard"
	"github.com/shopspring/decimal"
)

func (s *StakeboardTestSuite) TestNewAmountBlockchainFromUint64() {
	require := s.Require()
	amount := NewAmountBlockchainFromUint64(123)
	require.Equal(amount.Uint64(), uint64(123))
	require.Equal(amount.String(), "123")
}

func (s *StakeboardTestSuite) TestAmountHumanReadable() {
	require := s.Require()
	amountDec, _ := decimal.NewFromString("10.3")
	amount := AmountHumanReadable(amountDec)
	require.Equal(amount.String(), "10.3")
}

func (s *StakeboardTestSuite) TestNewAmountHumanReadableFromStr() {
	require := s.Require()
	amount, err := NewAmountHumanReadableFromStr("10.3")
	require.NoError(err)
	require.Equal(amount.String(), "10.3")

	amount, err = NewAmountHumanReadableFromStr(" 7000 ")
	require.NoError(err)
	require.Equal(amount.String(), "7000")

	amount, err = NewAmountHumanReadableFromStr("")
	require.Error(err)
	require.Equal(amount.String(), "0")

	_, err = NewAmountHumanReadableFromStr("invalid")
	require.Error(err)
}

func (s *StakeboardTestSuite) TestNewBlockchainAmountStr() {
	require := s.Require()
	amount := NewAmountBlockchainFromStr("10")
	require.EqualValues(amount.Uint64(), 10)

	amount = NewAmountBlockchainFromStr("10.1")
	require.EqualValues(amount.Uint64(), 0)

	amount = NewAmountBlockchainFromStr("0x10")
	require.EqualValues(amount.Uint64(), 16)
}

func (s *StakeboardTestSuite) TestParseAmountBlockchain() {
	require := s.Require()

	amount, err := ParseAmountBlockchain("10000")
	require.NoError(err)
	require.Equal("10000", amount.String())

	amount, err = ParseAmountBlockchain("1000000000000000000000000000")
	require.NoError(err)
	require.Equal("1000000000000000000000000000", amount.String())

	for _, bad := range []string{"", "  ", "abc", "1.5", "-1"} {
		_, err = ParseAmountBlockchain(bad)
		require.Error(err, bad)
	}
	_, err = ParseAmountBlockchain("-5")
	require.ErrorIs(err, ErrNegativeAmount)
}

func (s *StakeboardTestSuite) TestSafeSub() {
	require := s.Require()
	liquid := NewAmountBlockchainFromUint64(10_000)
	stake := NewAmountBlockchainFromUint64(7_000)

	rest, err := liquid.SafeSub(&stake)
	require.NoError(err)
	require.Equal("3000", rest.String())

	_, err = stake.SafeSub(&liquid)
	require.ErrorIs(err, ErrNegativeAmount)
	// operands are untouched
	require.Equal("10000", liquid.String())
	require.Equal("7000", stake.String())
}

func (s *StakeboardTestSuite) TestHumanToBlockchainRoundTrip() {
	require := s.Require()
	human, err := NewAmountHumanReadableFromStr("1.5")
	require.NoError(err)
	chain := human.ToBlockchain(18)
	require.Equal("1500000000000000000", chain.String())
	require.Equal("1.5", chain.ToHuman(18).String())
	require.Equal("1.50", chain.ToHuman(18).StringFixed(2))
}

func (s *StakeboardTestSuite) TestMultiplyByFloat() {
	require := s.Require()
	require.EqualValues(1200, MultiplyByFloat(NewAmountBlockchainFromUint64(1000), 1.2).Uint64())
	require.EqualValues(500, MultiplyByFloat(NewAmountBlockchainFromUint64(1000), .5).Uint64())
	require.EqualValues(0, MultiplyByFloat(NewAmountBlockchainFromUint64(0), 2).Uint64())
}

func (s *StakeboardTestSuite) TestAmountJSON() {
	require := s.Require()
	type wrapper struct {
		Chain AmountBlockchain    `json:"chain"`
		Human AmountHumanReadable `json:"human"`
	}
	human, _ := NewAmountHumanReadableFromStr("2.25")
	bz, err := json.Marshal(wrapper{NewAmountBlockchainFromUint64(42), human})
	require.NoError(err)
	require.JSONEq(`{"chain":"42","human":"2.25"}`, string(bz))

	var out wrapper
	require.NoError(json.Unmarshal([]byte(`{"chain":"0x2a","human":"1"}`), &out))
	require.EqualValues(42, out.Chain.Uint64())
	require.Equal("1", out.Human.String())

	require.Error(json.Unmarshal([]byte(`{"chain":"x"}`), &out))
}
