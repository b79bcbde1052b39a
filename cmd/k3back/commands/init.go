package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3back/cmd/k3back/handlers"
)

// Init returns the init command.
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Long: `Init runs a short interactive wizard and writes a k3back configuration
file with sensible defaults. Additional destinations can be added to the
generated file by hand.

Example:
  k3back init
  k3back init -o /etc/k3back/k3back.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "k3back.yaml", "Path the configuration file is written to")

	return cmd
}
