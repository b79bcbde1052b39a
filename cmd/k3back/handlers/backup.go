// Package handlers contains the execution logic behind each CLI command.
//
// Handlers wire configuration, logging, and the pipeline together. External
// collaborators are constructed through package-level factory function
// variables so tests can substitute them.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/k3back/internal/backup"
	"github.com/imamik/k3back/internal/cluster"
	"github.com/imamik/k3back/internal/config"
	"github.com/imamik/k3back/internal/logging"
	"github.com/imamik/k3back/internal/metrics"
	"github.com/imamik/k3back/internal/platform/s3"
	"github.com/imamik/k3back/internal/runner"
	"github.com/imamik/k3back/internal/upload"
	"github.com/imamik/k3back/internal/util/retry"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads and validates the configuration file.
	loadConfig = config.LoadFile

	// newLogger constructs the logger handed to every component.
	newLogger = func(verbosity int) logr.Logger {
		return logging.New(os.Stderr, verbosity)
	}

	// newCollector builds the cluster state collector.
	newCollector = func(log logr.Logger, cfg *config.Config) backup.Collector {
		run := runner.New(log, cfg.CommandTimeout)
		return cluster.New(log, run, cluster.Options{
			K3sBinary:     cfg.K3sBinary,
			KubectlBinary: cfg.KubectlBinary,
			ServiceName:   cfg.ServiceName,
			ManifestsDir:  cfg.ManifestsDir,
			EtcdDataDir:   cfg.EtcdDataDir,
		})
	}

	// newStore builds the object-store client for one destination.
	newStore backup.StoreFactory = func(ctx context.Context, dest config.Destination) (upload.ObjectStore, error) {
		return s3.NewClient(ctx, s3.Options{
			Region:    dest.Region,
			Endpoint:  dest.Endpoint,
			Profile:   dest.Profile,
			AccessKey: dest.AccessKey,
			SecretKey: dest.SecretKey,
			PathStyle: dest.PathStyle,
		})
	}

	// isTerminal reports whether stdout is a terminal.
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
)

// Backup handles the backup command.
//
// It runs the collect-and-upload pipeline, optionally retrying the whole
// pipeline on terminal failure, records run metrics, and prints the final
// report. Degraded sub-steps never fail the command; a failed mandatory step
// does.
func Backup(ctx context.Context, configPath string, retries, verbosity int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := newLogger(verbosity)
	pipeline := backup.NewPipeline(log, cfg, newCollector(log, cfg), newStore)

	start := time.Now()
	var report *backup.Report
	runOnce := func() error {
		var runErr error
		report, runErr = pipeline.Execute(ctx)
		return runErr
	}

	var runErr error
	if retries > 0 {
		runErr = retry.Do(ctx, runOnce, retry.WithMaxRetries(retries))
	} else {
		runErr = runOnce()
	}

	recorder := metrics.NewRecorder()
	recorder.Observe(report, time.Since(start), runErr)
	if cfg.MetricsTextfile != "" {
		if werr := recorder.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Error(werr, "failed to write metrics textfile", "path", cfg.MetricsTextfile)
		}
	}

	if runErr != nil {
		return fmt.Errorf("backup failed: %w", runErr)
	}

	printReport(report)
	return nil
}

// printReport prints the terminal run summary. The report must let operators
// tell a clean run from one with degraded sub-steps.
func printReport(report *backup.Report) {
	if isTerminal() {
		fmt.Println()
		fmt.Println("Backup complete!")
		fmt.Println("----------------")
	}
	fmt.Printf("Staging path:  %s\n", report.Run.StagingPath)
	fmt.Printf("Remote prefix: %s\n", report.Run.Prefix)
	fmt.Printf("Files staged:  %d\n", report.FileCount)

	for i := range report.Destinations {
		d := &report.Destinations[i]
		switch {
		case d.Err != nil:
			fmt.Printf("Destination %s: FAILED (%v)\n", d.Name, d.Err)
		case d.VerifyErr != nil:
			fmt.Printf("Destination %s: %d uploaded, %d failed (verification failed: %v)\n",
				d.Name, d.Uploaded(), d.Failed(), d.VerifyErr)
		case d.VerifiedKeys != nil:
			fmt.Printf("Destination %s: %d uploaded, %d failed, %d objects verified\n",
				d.Name, d.Uploaded(), d.Failed(), len(d.VerifiedKeys))
		default:
			fmt.Printf("Destination %s: %d uploaded, %d failed\n", d.Name, d.Uploaded(), d.Failed())
		}
	}

	if n := report.DegradedCount(); n > 0 {
		fmt.Printf("\nPipeline succeeded with %d degraded sub-step(s):\n", n)
		for _, notice := range report.Info.Notices {
			fmt.Printf("  - %s\n", notice)
		}
		for i := range report.Destinations {
			d := &report.Destinations[i]
			if d.Err != nil {
				fmt.Printf("  - destination %s: %v\n", d.Name, d.Err)
			}
			for _, res := range d.Results {
				if res.Err != nil {
					fmt.Printf("  - upload %s to %s: %v\n", res.Task.Key, d.Name, res.Err)
				}
			}
			if d.VerifyErr != nil {
				fmt.Printf("  - verification on %s: %v\n", d.Name, d.VerifyErr)
			}
		}
	}
}
