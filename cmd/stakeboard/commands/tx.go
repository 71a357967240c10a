package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/chain/evm"
	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/cordialsys/stakeboard/feed"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// failed pings before open wizards are failed
const connectionFailures = 3

func CmdApprove() *cobra.Command {
	return cmdAmountFlow(wizard.FlowApprove, "approve", "Allow the staking contract to use an amount of your tokens.")
}

func CmdStake() *cobra.Command {
	return cmdAmountFlow(wizard.FlowStake, "stake", "Stake tokens. The amount must be approved first.")
}

func CmdUnstake() *cobra.Command {
	return cmdAmountFlow(wizard.FlowUnstake, "unstake", "Unstake tokens. They cool down before they can be withdrawn.")
}

func cmdAmountFlow(flow wizard.Flow, use string, short string) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount == "" {
				return fmt.Errorf("must pass --amount to %s", use)
			}
			return runWizard(cmd, flow, wizard.Input{Amount: amount})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount of tokens, in whole tokens (e.g. 1500.5).")
	return cmd
}

func CmdRestake() *cobra.Command {
	return &cobra.Command{
		Use:   "restake",
		Short: "Stake all tokens in cooldown again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd, wizard.FlowRestake, wizard.Input{})
		},
	}
}

func CmdWithdraw() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw all tokens whose cooldown has ended.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd, wizard.FlowWithdraw, wizard.Input{})
		},
	}
}

func CmdDelegate() *cobra.Command {
	return &cobra.Command{
		Use:     "delegate <guardian>",
		Aliases: []string{"select-guardian"},
		Short:   "Select the guardian your stake is delegated to.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guardian := sb.NormalizeAddress(args[0])
			return runWizard(cmd, wizard.FlowGuardianChange, wizard.Input{Guardian: guardian})
		},
	}
}

// runWizard drives one wizard to Success or Failed. An interrupt stops
// watching; a transaction already sent stays on chain.
func runWizard(cmd *cobra.Command, flow wizard.Flow, input wizard.Input) error {
	cfg := setup.UnwrapConfig(cmd.Context())
	args := setup.UnwrapArgs(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var confirm evm.Confirmer
	if !args.Yes {
		confirm = Confirmer(cfg)
	}
	app, err := setup.NewApp(ctx, cfg, confirm)
	if err != nil {
		return err
	}
	if !app.CanSign {
		return fmt.Errorf("no wallet configured to sign for %s", app.Account)
	}

	if flow == wizard.FlowGuardianChange {
		snap, err := app.Store.Snapshot(ctx)
		if err != nil {
			return err
		}
		if snap.IsSelected(input.Guardian) {
			color.Yellow("Guardian %s is already selected", input.Guardian)
			return nil
		}
	}

	ctrl, err := wizard.Open(ctx, flow, app.Store, wizard.Options{
		Threshold: uint64(cfg.Chain.Confirmations.Threshold),
		Decimals:  cfg.Chain.Decimals,
		OnChange: func(id string, state wizard.State) {
			if state.Step != wizard.StepInput {
				printState(cfg, state)
			}
		},
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	state := ctrl.State()
	if flow.TakesAmount() || flow.TakesGuardian() {
		if state, err = ctrl.SetInput(ctx, input); err != nil {
			return err
		}
	}
	if !state.ActionEnabled() {
		if state.InputErr != nil {
			return state.InputErr
		}
		return fmt.Errorf("nothing to %s", flow.ActionLabel())
	}

	monitor := feed.NewConnectionMonitor(app.Client, cfg.Chain.PollInterval, connectionFailures)
	monitor.OnLost = func(err error) {
		ctrl.Disconnect()
	}
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go monitor.Run(monitorCtx)

	if _, err := ctrl.Submit(ctx); err != nil {
		return err
	}
	state, err = ctrl.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logrus.WithField("tx", state.Tx.Hash).Debug("interrupted")
			color.Yellow("Stopped watching %s, the transaction stays on chain", state.Tx.Hash)
			return nil
		}
		return err
	}
	if state.Step == wizard.StepFailed {
		return state.Err
	}
	return nil
}
