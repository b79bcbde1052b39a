package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3back/cmd/k3back/handlers"
)

// Verify returns the verify command.
func Verify() *cobra.Command {
	var (
		configPath string
		prefix     string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "List the remote objects of an existing backup prefix",
		Long: `Verify lists the objects stored under a backup prefix on every configured
destination and reports what was found. It is the same advisory listing pass
the backup command runs after uploading, usable on its own to check an
earlier run.

Example:
  k3back verify -c k3back.yaml --prefix backup_2024-01-01_00-00-00`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), configPath, prefix, verbosity)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the k3back configuration file (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Remote key prefix of the backup run (required)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("prefix")

	return cmd
}
