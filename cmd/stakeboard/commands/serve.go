package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/cordialsys/stakeboard/feed"
	"github.com/cordialsys/stakeboard/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func CmdServe() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup.UnwrapConfig(cmd.Context())
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// wizards are confirmed through the API, not on the terminal
			app, err := setup.NewApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			sdClient, err := server.NewStatsdClient(cfg.Server)
			if err != nil {
				return err
			}
			srv := server.New(cfg.Server, &cfg.Chain, app.Store, sdClient)

			go func() {
				if err := app.FollowBalance(ctx); err != nil && ctx.Err() == nil {
					logrus.WithError(err).Error("balance feed stopped")
				}
			}()

			monitor := feed.NewConnectionMonitor(app.Client, cfg.Chain.PollInterval, connectionFailures)
			monitor.OnLost = func(err error) {
				srv.Disconnect()
			}
			monitor.OnRestored = func() {
				refreshCtx, cancel := context.WithTimeout(ctx, cfg.Chain.PollInterval*4)
				defer cancel()
				if _, err := app.Store.Refresh(refreshCtx); err != nil {
					logrus.WithError(err).Warn("could not reload account")
				}
			}
			go monitor.Run(ctx)

			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on, overrides the configuration.")
	return cmd
}
