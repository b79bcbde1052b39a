// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// verbosity is raised by the persistent -v flag and passed to handlers.
var verbosity int

// Root returns the root command for the k3back CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "k3back",
		Short: "Back up a K3s cluster and upload it to object storage",
	}

	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(Backup())
	cmd.AddCommand(Verify())
	cmd.AddCommand(Init())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
