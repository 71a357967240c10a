package stakeboard_test

import (
	"time"

	. "github.com/cordialsys/stakeboard"
	"golang.org/x/time/rate"
)

func validChain() *ChainConfig {
	return &ChainConfig{
		Chain: "ETH",
		URL:   "http://localhost:8545",
		Contracts: Contracts{
			Token:      "0x1111111111111111111111111111111111111111",
			Staking:    "0x2222222222222222222222222222222222222222",
			Delegation: "0x3333333333333333333333333333333333333333",
		},
	}
}

func (s *StakeboardTestSuite) TestChainConfigureDefaults() {
	require := s.Require()
	chain := validChain()
	chain.Configure()

	require.EqualValues(18, chain.Decimals)
	require.Equal("ORBS", chain.TokenSymbol)
	require.Equal(6, chain.Confirmations.Threshold)
	require.Equal(12, chain.Confirmations.Final)
	require.Equal(4*time.Second, chain.PollInterval)
	require.Equal(14*24*time.Hour, chain.CooldownPeriod)
	require.NotNil(chain.Limiter)
	require.Equal(rate.Inf, chain.Limiter.Limit())
	require.NoError(chain.Validate())
}

func (s *StakeboardTestSuite) TestChainLimiter() {
	require := s.Require()
	chain := validChain()
	chain.PeriodLimit = time.Second
	require.Equal(rate.Every(time.Second), chain.NewClientLimiter().Limit())

	chain.RateLimit = 3
	chain.Burst = 5
	limiter := chain.NewClientLimiter()
	require.Equal(rate.Limit(3), limiter.Limit())
	require.Equal(5, limiter.Burst())
}

func (s *StakeboardTestSuite) TestChainValidate() {
	require := s.Require()
	chain := validChain()
	chain.Contracts.Staking = ""
	chain.Confirmations = Confirmations{Threshold: 0, Final: 0}
	err := chain.Validate()
	require.Error(err)
	require.ErrorContains(err, "staking contract")
	require.ErrorContains(err, "threshold must be at least 1")

	chain = validChain()
	chain.Configure()
	chain.Confirmations.Final = 2
	require.ErrorContains(chain.Validate(), "must not be below the threshold")

	chain = validChain()
	chain.Configure()
	chain.GasPriority = "urgent"
	require.ErrorContains(chain.Validate(), "invalid gas priority")
	chain.GasPriority = VeryAggressive
	chain.FeeLimit = NewAmountHumanReadableFromFloat(-1)
	require.ErrorContains(chain.Validate(), "fee limit must not be negative")
}

func (s *StakeboardTestSuite) TestChainURLs() {
	require := s.Require()
	chain := validChain()
	chain.ExplorerURL = "https://etherscan.io/tx/"
	require.Equal("https://etherscan.io/tx/0xabc", chain.ExplorerTxURL("0xabc"))
	require.Equal("", chain.ExplorerTxURL(""))

	url, err := chain.ClientURL()
	require.NoError(err)
	require.Equal("http://localhost:8545", url)

	chain.Auth = "raw:key123"
	url, err = chain.ClientURL()
	require.NoError(err)
	require.Equal("http://localhost:8545/key123", url)
	require.Contains(chain.String(), "<REDACTED>")
	require.NotContains(chain.String(), "key123")
}
