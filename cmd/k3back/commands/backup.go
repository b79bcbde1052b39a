package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k3back/cmd/k3back/handlers"
)

// Backup returns the backup command.
//
// The backup command runs one collect-and-upload pipeline: it snapshots etcd,
// exports the fixed set of resource kinds, copies static manifests, and
// uploads the staged files to every configured destination.
func Backup() *cobra.Command {
	var (
		configPath string
		retries    int
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Run one backup and upload it to all configured destinations",
		Long: `Backup collects the state of the local K3s cluster into a timestamped
staging directory and uploads every staged file to the configured
object-storage destinations.

Collected state:
  - etcd snapshot (when the cluster runs embedded etcd)
  - one YAML export per resource kind (deployments, services, configmaps,
    secrets, ingresses, persistentvolumes, persistentvolumeclaims)
  - copies of the static manifest files
  - a k3s_info.txt audit artifact

Only the etcd snapshot is mandatory; every other step degrades gracefully
and is reported in the final summary. Per-file upload failures never fail
the run.

Example:
  k3back backup -c k3back.yaml
  k3back backup -c k3back.yaml --retries 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Backup(cmd.Context(), configPath, retries, verbosity)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the k3back configuration file (required)")
	cmd.Flags().IntVar(&retries, "retries", 0, "Retry the whole pipeline up to N times on terminal failure")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
