package setup

import (
	"fmt"
	"os"

	sb "github.com/cordialsys/stakeboard"
	"github.com/spf13/cobra"
)

type Args struct {
	ConfigPath     string
	Rpc            string
	Account        sb.Address
	Wallet         string
	WalletIndex    uint32
	Yes            bool
	VerbosityCount int
}

const DefaultWalletRef = "env:STAKEBOARD_PRIVATE_KEY"

func AddArgs(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", os.Getenv("STAKEBOARD_CONFIG"), "Path to stakeboard.yaml (may set STAKEBOARD_CONFIG env var). Optional.")
	cmd.PersistentFlags().String("rpc", "", "RPC url to use, overrides the configuration. Optional.")
	cmd.PersistentFlags().String("account", "", "Account to show when no wallet is configured. Optional.")
	cmd.PersistentFlags().String("wallet", "", fmt.Sprintf("Secret reference for a private key or mnemonic, overrides the configuration (e.g. %s).", DefaultWalletRef))
	cmd.PersistentFlags().Uint32("wallet-index", 0, "Account index to derive when the wallet is a mnemonic.")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Do not ask before signing transactions.")
	cmd.PersistentFlags().CountP("verbose", "v", "Set verbosity.")
}

func ArgsFromCmd(cmd *cobra.Command) (*Args, error) {
	configPath, _ := cmd.Flags().GetString("config")
	rpc, _ := cmd.Flags().GetString("rpc")
	account, _ := cmd.Flags().GetString("account")
	wallet, _ := cmd.Flags().GetString("wallet")
	walletIndex, _ := cmd.Flags().GetUint32("wallet-index")
	yes, _ := cmd.Flags().GetBool("yes")
	count, _ := cmd.Flags().GetCount("verbose")

	args := &Args{
		ConfigPath:     configPath,
		Rpc:            rpc,
		Wallet:         wallet,
		WalletIndex:    walletIndex,
		Yes:            yes,
		VerbosityCount: count,
	}
	if account != "" {
		args.Account = sb.NormalizeAddress(account)
		if !args.Account.Valid() {
			return nil, fmt.Errorf("invalid --account %q", account)
		}
	}
	return args, nil
}
