package server

import (
	"fmt"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/listener"
	"github.com/cordialsys/stakeboard/store"
	"github.com/cordialsys/stakeboard/wizard"
)

const (
	LiquidCardID   = "balance_card_liquid_orbs"
	StakedCardID   = "balance_card_staked_orbs"
	CooldownCardID = "balance_card_cool_down_orbs"

	GuardiansTableID          = "guardians-table"
	GuardianAlreadySelectedID = "message-guardian-already-selected"

	WithdrawButtonTitle = "Withdraw your tokens"
	RestakeButtonTitle  = "Restake your tokens"
)

type Button struct {
	Title  string      `json:"title"`
	Flow   wizard.Flow `json:"flow"`
	Active bool        `json:"active"`
}

type BalanceCard struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Amount string `json:"amount"`
	// Smallest unit
	Raw    string `json:"raw"`
	Symbol string `json:"symbol"`
	Action Button `json:"action"`
}

type BalancesView struct {
	Account           sb.Address    `json:"account"`
	Cards             []BalanceCard `json:"cards"`
	CooldownReleaseAt *time.Time    `json:"cooldown_release_at,omitempty"`
	SelectedGuardian  *sb.Address   `json:"selected_guardian,omitempty"`
	Version           uint64        `json:"version"`
}

func human(amount sb.AmountBlockchain, decimals int32) string {
	return amount.ToHuman(decimals).String()
}

func NewBalancesView(snap store.Snapshot, chain *sb.ChainConfig, now time.Time) BalancesView {
	b := snap.Balances
	card := func(id, title string, amount sb.AmountBlockchain, action Button) BalanceCard {
		return BalanceCard{
			ID:     id,
			Title:  title,
			Amount: human(amount, chain.Decimals),
			Raw:    amount.String(),
			Symbol: chain.TokenSymbol,
			Action: action,
		}
	}

	cooldownAction := Button{Title: RestakeButtonTitle, Flow: wizard.FlowRestake, Active: true}
	if b.Withdrawable(now) {
		cooldownAction = Button{Title: WithdrawButtonTitle, Flow: wizard.FlowWithdraw, Active: true}
	}

	view := BalancesView{
		Account: snap.Account,
		Cards: []BalanceCard{
			card(LiquidCardID, fmt.Sprintf("Unstaked %s in your wallet", chain.TokenSymbol), b.Liquid,
				Button{Title: "Stake your tokens", Flow: wizard.FlowStake, Active: true}),
			card(StakedCardID, fmt.Sprintf("Staked %s in smart contract", chain.TokenSymbol), b.Staked,
				Button{Title: "Unlock your tokens", Flow: wizard.FlowUnstake, Active: true}),
			card(CooldownCardID, "Tokens in cooldown", b.CoolingDown, cooldownAction),
		},
		SelectedGuardian: snap.Selected,
		Version:          snap.Version,
	}
	if b.CoolingDown.Sign() > 0 && !b.CooldownReleaseAt.IsZero() {
		release := b.CooldownReleaseAt
		view.CooldownReleaseAt = &release
	}
	return view
}

type GuardianRow struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Address sb.Address `json:"address"`
	Website string     `json:"website,omitempty"`
	// Share of the participating stake, e.g. "12.34%"
	Stake    string `json:"stake"`
	Voted    string `json:"voted"`
	Selected bool   `json:"selected"`
}

type GuardiansView struct {
	ID                 string        `json:"id"`
	TotalParticipating string        `json:"total_participating"`
	Rows               []GuardianRow `json:"rows"`
}

func NewGuardiansView(snap store.Snapshot, chain *sb.ChainConfig) GuardiansView {
	view := GuardiansView{
		ID:                 GuardiansTableID,
		TotalParticipating: human(snap.TotalParticipating, chain.Decimals),
		Rows:               make([]GuardianRow, 0, len(snap.Guardians)),
	}
	for i, g := range snap.Guardians {
		voted := "No"
		if g.Voted {
			voted = "Yes"
		}
		view.Rows = append(view.Rows, GuardianRow{
			ID:       fmt.Sprintf("guardian-%d", i+1),
			Name:     g.Name,
			Address:  g.Address,
			Website:  g.Website,
			Stake:    store.StakeShare(g.Stake, snap.TotalParticipating).StringFixed(2) + "%",
			Voted:    voted,
			Selected: snap.IsSelected(g.Address),
		})
	}
	return view
}

type TxView struct {
	Kind          listener.Kind `json:"kind"`
	Hash          sb.TxHash     `json:"hash,omitempty"`
	Confirmations uint64        `json:"confirmations"`
	Threshold     uint64        `json:"threshold"`
	ExplorerURL   string        `json:"explorer_url,omitempty"`
}

type WizardView struct {
	ID       string          `json:"id"`
	Flow     wizard.Flow     `json:"flow"`
	Step     wizard.Step     `json:"step"`
	Element  string          `json:"element"`
	Elements wizard.Elements `json:"elements"`

	InputsEnabled bool   `json:"inputs_enabled"`
	ActionEnabled bool   `json:"action_enabled"`
	ActionLabel   string `json:"action_label"`

	AmountInput string     `json:"amount_input,omitempty"`
	Amount      string     `json:"amount,omitempty"`
	Guardian    sb.Address `json:"guardian,omitempty"`

	Tx      TxView         `json:"tx"`
	Message wizard.Message `json:"message"`
	Closed  bool           `json:"closed,omitempty"`
}

func NewWizardView(c *wizard.Controller, chain *sb.ChainConfig) WizardView {
	state := c.State()
	elements := wizard.ElementsOf(state.Flow)
	view := WizardView{
		ID:            c.ID(),
		Flow:          state.Flow,
		Step:          state.Step,
		Element:       elements.Element(state.Step),
		Elements:      elements,
		InputsEnabled: state.InputsEnabled(),
		ActionEnabled: state.ActionEnabled(),
		ActionLabel:   state.Flow.ActionLabel(),
		AmountInput:   state.AmountInput,
		Guardian:      state.Guardian,
		Tx: TxView{
			Kind:          state.Tx.Kind,
			Hash:          state.Tx.Hash,
			Confirmations: state.Tx.Confirmations,
			Threshold:     c.Threshold(),
		},
		Message: wizard.Messages(state),
		Closed:  c.Closed(),
	}
	if state.Amount.Sign() > 0 {
		view.Amount = human(state.Amount, chain.Decimals)
	}
	view.Tx.ExplorerURL = chain.ExplorerTxURL(state.Tx.Hash)
	return view
}
