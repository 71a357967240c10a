package commands

import (
	"context"
	"encoding/json"
	"fmt"

	sb "github.com/cordialsys/stakeboard"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/cordialsys/stakeboard/wizard"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

func asJson(data any) string {
	bz, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(bz)
}

func human(cfg *setup.Config, amount sb.AmountBlockchain) string {
	return fmt.Sprintf("%s %s", amount.ToHuman(cfg.Chain.Decimals).String(), cfg.Chain.TokenSymbol)
}

// Confirmer asks on the terminal before a transaction is signed.
// Declining counts as the user rejecting the transaction.
func Confirmer(cfg *setup.Config) func(ctx context.Context, params sb.TxParams) error {
	return func(ctx context.Context, params sb.TxParams) error {
		label := fmt.Sprintf("Sign %s transaction from %s", params.Action, params.From.Short())
		switch params.Action {
		case sb.Delegate:
			label = fmt.Sprintf("Sign transaction selecting guardian %s", params.Guardian)
		case sb.Approve, sb.Stake, sb.Unstake, sb.Restake, sb.Withdraw:
			label = fmt.Sprintf("Sign %s of %s", params.Action, human(cfg, params.Amount))
		}
		prompt := promptui.Prompt{
			Label:     label,
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if err == promptui.ErrAbort || err == promptui.ErrInterrupt || err == promptui.ErrEOF {
				return xcerrors.RejectedByUserf("transaction rejected")
			}
			return err
		}
		return nil
	}
}

var (
	stepColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

// printState prints one line for a wizard state.
func printState(cfg *setup.Config, state wizard.State) {
	msg := wizard.Messages(state)
	text := msg.Message
	if text == "" {
		text = msg.SubMessage
	} else if msg.SubMessage != "" {
		text = fmt.Sprintf("%s: %s", msg.Message, msg.SubMessage)
	}
	switch state.Step {
	case wizard.StepSuccess:
		successColor.Println(text)
	case wizard.StepFailed:
		failColor.Println(text)
	default:
		stepColor.Printf("[%s] ", state.Step)
		fmt.Println(text)
	}
	if link := cfg.Chain.ExplorerTxURL(state.Tx.Hash); link != "" && (state.Step == wizard.StepAwaitingConfirmation || state.Terminal()) {
		dimColor.Println(link)
	}
}
