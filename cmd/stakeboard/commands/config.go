package commands

import (
	"fmt"

	"github.com/cordialsys/stakeboard/cmd/stakeboard/setup"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func CmdConfig() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup.UnwrapConfig(cmd.Context())
			var bz []byte
			var err error
			switch format {
			case "yaml":
				bz, err = yaml.Marshal(cfg)
			case "toml":
				bz, err = toml.Marshal(cfg)
			case "json":
				bz = []byte(asJson(cfg) + "\n")
			default:
				return fmt.Errorf("unknown format %q (options: yaml, toml, json)", format)
			}
			if err != nil {
				return err
			}
			fmt.Print(string(bz))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml or json.")
	return cmd
}
