package stakeboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cordialsys/stakeboard/config"
	"golang.org/x/time/rate"
)

const (
	DefaultDecimals               = 18
	DefaultTokenSymbol            = "ORBS"
	DefaultConfirmationsThreshold = 6
	DefaultConfirmationsFinal     = 12
	DefaultPollInterval           = 4 * time.Second
	DefaultCooldownPeriod         = 14 * 24 * time.Hour
)

// Contracts are the on-chain contracts the dashboard talks to.
type Contracts struct {
	Token      ContractAddress `yaml:"token" json:"token" toml:"token"`
	Staking    ContractAddress `yaml:"staking" json:"staking" toml:"staking"`
	Delegation ContractAddress `yaml:"delegation" json:"delegation" toml:"delegation"`
}

type Confirmations struct {
	// Confirmations needed before a wizard reports success.
	Threshold int `yaml:"threshold,omitempty" json:"threshold,omitempty" toml:"threshold,omitempty"`
	// Confirmations after which the chain client reports the receipt as finalized.
	Final int `yaml:"final,omitempty" json:"final,omitempty" toml:"final,omitempty"`
}

type ChainConfig struct {
	Chain   string `yaml:"chain" json:"chain" toml:"chain"`
	ChainID int64  `yaml:"chain_id,omitempty" json:"chain_id,omitempty" toml:"chain_id,omitempty"`
	URL     string `yaml:"url" json:"url" toml:"url"`
	// Optional secret reference appended to the url, e.g. for infura style providers.
	Auth config.Secret `yaml:"auth,omitempty" json:"auth,omitempty" toml:"auth,omitempty"`

	Decimals    int32  `yaml:"decimals,omitempty" json:"decimals,omitempty" toml:"decimals,omitempty"`
	TokenSymbol string `yaml:"token_symbol,omitempty" json:"token_symbol,omitempty" toml:"token_symbol,omitempty"`

	Contracts     Contracts     `yaml:"contracts" json:"contracts" toml:"contracts"`
	Confirmations Confirmations `yaml:"confirmations,omitempty" json:"confirmations,omitempty" toml:"confirmations,omitempty"`

	PollInterval   time.Duration `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty" toml:"poll_interval,omitempty"`
	CooldownPeriod time.Duration `yaml:"cooldown_period,omitempty" json:"cooldown_period,omitempty" toml:"cooldown_period,omitempty"`

	// Multiplier on the suggested tip: low, market, aggressive, very-aggressive or a decimal.
	GasPriority GasFeePriority `yaml:"gas_priority,omitempty" json:"gas_priority,omitempty" toml:"gas_priority,omitempty"`
	// Most a single transaction may spend on gas, in the native asset. Zero disables the check.
	FeeLimit AmountHumanReadable `yaml:"fee_limit,omitempty" json:"fee_limit,omitempty" toml:"fee_limit,omitempty"`

	// Rate limit setting on RPC requests for client, in requests/second.
	RateLimit rate.Limit `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty" toml:"rate_limit,omitempty"`
	// Period between requests (alternative to `rate_limit`)
	PeriodLimit time.Duration `yaml:"period_limit,omitempty" json:"period_limit,omitempty" toml:"period_limit,omitempty"`
	// Number of requests to permit in burst
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty" toml:"burst,omitempty"`

	// Transaction page on a block explorer, e.g. https://etherscan.io/tx/
	ExplorerURL string `yaml:"explorer_url,omitempty" json:"explorer_url,omitempty" toml:"explorer_url,omitempty"`

	// Built from `rate_limit`, `period_limit`, `burst` by Configure.
	Limiter *rate.Limiter `yaml:"-" json:"-" toml:"-" mapstructure:"-"`
}

func (chain *ChainConfig) NewClientLimiter() *rate.Limiter {
	burst := chain.Burst
	if burst <= 0 {
		burst = 1
	}
	// default no limit
	var limiter = rate.NewLimiter(rate.Inf, burst)
	if chain.PeriodLimit != 0 {
		limiter = rate.NewLimiter(rate.Every(chain.PeriodLimit), burst)
	}
	if chain.RateLimit != 0 {
		limiter = rate.NewLimiter(chain.RateLimit, burst)
	}
	return limiter
}

// Configure fills in defaults and builds the limiter. Call after loading from config.
func (chain *ChainConfig) Configure() {
	if chain.Decimals == 0 {
		chain.Decimals = DefaultDecimals
	}
	if chain.TokenSymbol == "" {
		chain.TokenSymbol = DefaultTokenSymbol
	}
	if chain.Confirmations.Threshold == 0 {
		chain.Confirmations.Threshold = DefaultConfirmationsThreshold
	}
	if chain.Confirmations.Final == 0 {
		chain.Confirmations.Final = DefaultConfirmationsFinal
	}
	if chain.PollInterval == 0 {
		chain.PollInterval = DefaultPollInterval
	}
	if chain.CooldownPeriod == 0 {
		chain.CooldownPeriod = DefaultCooldownPeriod
	}
	chain.Limiter = chain.NewClientLimiter()
}

func (chain *ChainConfig) Validate() error {
	var errs []error
	if chain.URL == "" {
		errs = append(errs, errors.New("missing rpc url"))
	}
	contracts := map[string]ContractAddress{
		"token":      chain.Contracts.Token,
		"staking":    chain.Contracts.Staking,
		"delegation": chain.Contracts.Delegation,
	}
	for _, name := range []string{"token", "staking", "delegation"} {
		if !contracts[name].Valid() {
			errs = append(errs, fmt.Errorf("invalid %s contract address: %q", name, contracts[name]))
		}
	}
	if _, err := chain.GasPriority.GetDefault(); err != nil {
		errs = append(errs, fmt.Errorf("invalid gas priority %q: %v", chain.GasPriority, err))
	}
	if chain.FeeLimit.Sign() < 0 {
		errs = append(errs, fmt.Errorf("fee limit must not be negative, got %s", chain.FeeLimit))
	}
	if chain.Confirmations.Threshold < 1 {
		errs = append(errs, fmt.Errorf("confirmation threshold must be at least 1, got %d", chain.Confirmations.Threshold))
	}
	if chain.Confirmations.Final < chain.Confirmations.Threshold {
		errs = append(errs, fmt.Errorf("final confirmations (%d) must not be below the threshold (%d)", chain.Confirmations.Final, chain.Confirmations.Threshold))
	}
	return errors.Join(errs...)
}

// ClientURL returns the rpc url with the auth secret appended, if one is configured.
func (chain *ChainConfig) ClientURL() (string, error) {
	if chain.Auth == "" {
		return chain.URL, nil
	}
	secret, err := chain.Auth.Load()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(chain.URL, "/") + "/" + secret, nil
}

// NativeSymbol is the asset gas is paid in.
func (chain *ChainConfig) NativeSymbol() string {
	if chain.Chain == "" {
		return "ETH"
	}
	return chain.Chain
}

func (chain *ChainConfig) ExplorerTxURL(hash TxHash) string {
	if chain.ExplorerURL == "" || hash == "" {
		return ""
	}
	return strings.TrimSuffix(chain.ExplorerURL, "/") + "/" + string(hash)
}

func (chain ChainConfig) String() string {
	secretRef := string(chain.Auth)
	if secretRef != "" && (!config.HasTypePrefix(secretRef) || strings.HasPrefix(secretRef, string(config.Raw))) {
		secretRef = "<REDACTED>"
	}
	return fmt.Sprintf(
		"ChainConfig(chain=%s chainId=%d url=%s auth=%s token=%s staking=%s delegation=%s threshold=%d)",
		chain.Chain, chain.ChainID, chain.URL, secretRef,
		chain.Contracts.Token, chain.Contracts.Staking, chain.Contracts.Delegation,
		chain.Confirmations.Threshold,
	)
}
