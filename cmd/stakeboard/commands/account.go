package commands

import (
	"fmt"
	"os"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/cordialsys/stakeboard/server"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func CmdBalance() *cobra.Command {
	var asJsonFlag bool
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show liquid, staked and cooling down tokens of an account.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup.UnwrapConfig(cmd.Context())
			if len(args) > 0 {
				address := sb.NormalizeAddress(args[0])
				if !address.Valid() {
					return fmt.Errorf("invalid address %q", args[0])
				}
				// reading another account needs no wallet
				cfg.Account = address
				cfg.Wallet = ""
			}
			app, err := setup.NewApp(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			snap, err := app.Store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			view := server.NewBalancesView(snap, &cfg.Chain, time.Now())
			if asJsonFlag {
				fmt.Println(asJson(view))
				return nil
			}

			color.New(color.Bold).Println(snap.Account)
			for _, card := range view.Cards {
				fmt.Printf("  %-32s %s %s\n", card.Title, card.Amount, card.Symbol)
			}
			if view.CooldownReleaseAt != nil {
				fmt.Printf("  %-32s %s\n", "Cooldown ends", view.CooldownReleaseAt.Format(time.RFC3339))
			}
			if snap.Selected != nil {
				fmt.Printf("  %-32s %s\n", "Guardian", *snap.Selected)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJsonFlag, "json", false, "Print as JSON.")
	return cmd
}

func CmdGuardians() *cobra.Command {
	var asJsonFlag bool
	cmd := &cobra.Command{
		Use:   "guardians",
		Short: "List guardians by stake.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup.UnwrapConfig(cmd.Context())
			if cfg.GuardiansFile == "" {
				return fmt.Errorf("no guardians_file configured")
			}
			app, err := setup.NewApp(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			snap, err := app.Store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			view := server.NewGuardiansView(snap, &cfg.Chain)
			if asJsonFlag {
				fmt.Println(asJson(view))
				return nil
			}
			printGuardians(view)
			fmt.Printf("\nTotal participating: %s %s\n", view.TotalParticipating, cfg.Chain.TokenSymbol)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJsonFlag, "json", false, "Print as JSON.")
	return cmd
}

func printGuardians(view server.GuardiansView) {
	header := color.New(color.Bold)
	header.Fprintf(os.Stdout, "%-4s %-24s %-44s %-8s %-5s\n", "#", "NAME", "ADDRESS", "STAKE", "VOTED")
	for i, row := range view.Rows {
		marker := " "
		if row.Selected {
			marker = "*"
		}
		line := fmt.Sprintf("%-4d %-24s %-44s %-8s %-5s %s", i+1, row.Name, row.Address, row.Stake, row.Voted, marker)
		if row.Selected {
			color.Green("%s", line)
		} else {
			fmt.Println(line)
		}
	}
}
