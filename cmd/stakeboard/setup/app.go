package setup

import (
	"context"
	"fmt"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/chain/evm"
	"github.com/cordialsys/stakeboard/feed"
	"github.com/cordialsys/stakeboard/store"
	"github.com/sirupsen/logrus"
)

// App is a connected client with a running store for one account.
type App struct {
	Config  *Config
	Client  *evm.Client
	Store   *store.Store
	Account sb.Address
	// Whether transactions can be signed
	CanSign bool
}

// NewApp connects to the chain, starts the account store on ctx and loads
// the account and the guardians once.
func NewApp(ctx context.Context, cfg *Config, confirm evm.Confirmer) (*App, error) {
	secret, err := cfg.LoadWallet()
	if err != nil {
		return nil, err
	}
	var signer evm.Signer
	account := cfg.Account
	if secret != "" {
		keySigner, err := evm.NewSigner(secret, cfg.WalletIndex)
		if err != nil {
			return nil, fmt.Errorf("could not import wallet: %v", err)
		}
		signer = keySigner
		account = keySigner.Address()
	}
	if account == "" {
		return nil, fmt.Errorf("no account: configure a wallet (e.g. %s) or pass --account", DefaultWalletRef)
	}

	cli, err := evm.Dial(ctx, &cfg.Chain, signer, confirm)
	if err != nil {
		return nil, err
	}
	st := store.New(cli, account, store.Options{CooldownPeriod: cfg.Chain.CooldownPeriod})
	go st.Run(ctx)

	if _, err := st.Refresh(ctx); err != nil {
		return nil, err
	}
	if cfg.GuardiansFile != "" {
		guardians, err := feed.LoadGuardiansFile(cfg.GuardiansFile)
		if err != nil {
			return nil, fmt.Errorf("could not load guardians from %s: %w", cfg.GuardiansFile, err)
		}
		if _, err := st.SetGuardians(ctx, guardians); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"account": account,
		"chain":   cfg.Chain.Chain,
		"signer":  signer != nil,
	}).Info("account loaded")

	return &App{
		Config:  cfg,
		Client:  cli,
		Store:   st,
		Account: account,
		CanSign: signer != nil,
	}, nil
}

// BalanceFeed returns the redis feed when redis is configured, otherwise a
// feed polling the chain. close releases it.
func (app *App) BalanceFeed(ctx context.Context) (f feed.BalanceFeed, close func(), err error) {
	if app.Config.Redis.Enabled() {
		redisFeed, err := feed.NewRedisFeed(ctx, app.Config.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisFeed, func() { _ = redisFeed.Close() }, nil
	}
	return feed.NewPollFeed(app.Client, app.Config.Chain.PollInterval, app.Config.Chain.Limiter), func() {}, nil
}

// FollowBalance applies every liquid balance change to the store until ctx is done.
func (app *App) FollowBalance(ctx context.Context) error {
	balanceFeed, closeFeed, err := app.BalanceFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFeed()
	log := logrus.WithField("account", app.Account)
	return balanceFeed.Subscribe(ctx, app.Account, func(newAmount string) {
		if _, err := app.Store.ApplyBalanceNotification(ctx, newAmount); err != nil {
			log.WithError(err).Warn("could not apply balance change")
		}
	})
}
