package main

import (
	"context"
	"os"

	"github.com/cordialsys/stakeboard/cmd/stakeboard/commands"
	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/cordialsys/stakeboard/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func CmdStakeboard() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "stakeboard",
		Short:        "Stake tokens, select a guardian and follow your balances",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			args, err := setup.ArgsFromCmd(cmd)
			if err != nil {
				return err
			}
			config.ConfigureLogger(config.LevelFromVerbosity(args.VerbosityCount).String())

			cfg, err := setup.LoadConfig(args)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"rpc":     cfg.Chain.URL,
				"chain":   cfg.Chain.Chain,
				"staking": cfg.Chain.Contracts.Staking,
			}).Info("chain")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = setup.WrapArgs(ctx, args)
			ctx = setup.WrapConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}
	setup.AddArgs(cmd)

	cmd.AddCommand(commands.CmdBalance())
	cmd.AddCommand(commands.CmdGuardians())
	cmd.AddCommand(commands.CmdApprove())
	cmd.AddCommand(commands.CmdStake())
	cmd.AddCommand(commands.CmdUnstake())
	cmd.AddCommand(commands.CmdRestake())
	cmd.AddCommand(commands.CmdWithdraw())
	cmd.AddCommand(commands.CmdDelegate())
	cmd.AddCommand(commands.CmdServe())
	cmd.AddCommand(commands.CmdConfig())

	return cmd
}

func main() {
	rootCmd := CmdStakeboard()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
