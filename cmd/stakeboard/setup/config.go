package setup

import (
	"context"
	"fmt"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/config"
	"github.com/cordialsys/stakeboard/feed"
	"github.com/cordialsys/stakeboard/server"
)

type ContextKey string

const ContextConfig ContextKey = "config"
const ContextArgs ContextKey = "args"

// Config is the stakeboard.yaml file.
type Config struct {
	Chain sb.ChainConfig `yaml:"chain" json:"chain" toml:"chain"`
	// Private key or mnemonic used to sign; without it only reads are possible.
	Wallet      config.Secret `yaml:"wallet,omitempty" json:"wallet,omitempty" toml:"wallet,omitempty"`
	WalletIndex uint32        `yaml:"wallet_index,omitempty" json:"wallet_index,omitempty" toml:"wallet_index,omitempty"`
	// Account to show when there is no wallet
	Account sb.Address `yaml:"account,omitempty" json:"account,omitempty" toml:"account,omitempty"`

	Redis         feed.RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty" toml:"redis,omitempty"`
	GuardiansFile string           `yaml:"guardians_file,omitempty" json:"guardians_file,omitempty" toml:"guardians_file,omitempty"`
	Server        server.Config    `yaml:"server,omitempty" json:"server,omitempty" toml:"server,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Chain: sb.ChainConfig{
			Chain:          "ETH",
			ChainID:        1,
			URL:            "http://127.0.0.1:8545",
			Decimals:       sb.DefaultDecimals,
			TokenSymbol:    sb.DefaultTokenSymbol,
			PollInterval:   sb.DefaultPollInterval,
			CooldownPeriod: sb.DefaultCooldownPeriod,
			Confirmations: sb.Confirmations{
				Threshold: sb.DefaultConfirmationsThreshold,
				Final:     sb.DefaultConfirmationsFinal,
			},
			ExplorerURL: "https://etherscan.io/tx/",
		},
		Wallet: DefaultWalletRef,
		Server: server.Config{Addr: server.DefaultAddr},
	}
}

// LoadConfig reads the configuration file, falling back to defaults, and
// applies command line overrides.
func LoadConfig(args *Args) (*Config, error) {
	cfg := &Config{}
	if err := config.RequireConfigFile(args.ConfigPath, "", cfg, DefaultConfig()); err != nil {
		return nil, err
	}
	if args.Rpc != "" {
		cfg.Chain.URL = args.Rpc
	}
	if args.Wallet != "" {
		cfg.Wallet = config.Secret(args.Wallet)
	}
	if args.WalletIndex != 0 {
		cfg.WalletIndex = args.WalletIndex
	}
	if args.Account != "" {
		cfg.Account = args.Account
	}
	cfg.Chain.Configure()
	if err := cfg.Chain.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain configuration: %w", err)
	}
	return cfg, nil
}

// LoadWallet resolves the wallet secret. A missing wallet is not an error.
func (cfg *Config) LoadWallet() (string, error) {
	if cfg.Wallet == "" {
		return "", nil
	}
	secret, err := cfg.Wallet.Load()
	if err != nil {
		return "", fmt.Errorf("could not load wallet: %w", err)
	}
	return secret, nil
}

func WrapConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ContextConfig, cfg)
}

func UnwrapConfig(ctx context.Context) *Config {
	return ctx.Value(ContextConfig).(*Config)
}

func WrapArgs(ctx context.Context, args *Args) context.Context {
	return context.WithValue(ctx, ContextArgs, args)
}

func UnwrapArgs(ctx context.Context) *Args {
	return ctx.Value(ContextArgs).(*Args)
}
