// Package main is the entry point for the k3back CLI.
//
// k3back takes point-in-time backups of a single-node K3s cluster (etcd
// snapshot, resource exports, static manifests) and uploads them to one or
// more S3-compatible object storage destinations.
//
// Commands: backup, verify, init, version, completion.
//
// For detailed usage information, run:
//
//	k3back --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/k3back/cmd/k3back/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
