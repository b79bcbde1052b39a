package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/k3back/internal/config"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive configuration wizard.
	runWizard = config.RunWizard

	// writeConfig writes the config to a file.
	writeConfig = config.WriteFile
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := result.ToConfig()

	if err := writeConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)

	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("k3back - K3s cluster backups to object storage")
	fmt.Println("==============================================")
	fmt.Println()
	fmt.Println("This wizard creates a backup configuration with sensible defaults.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Backup Summary")
	fmt.Println("--------------")
	fmt.Printf("  Staging path: %s\n", cfg.StagingBasePath)
	fmt.Printf("  Manifests:    %s\n", cfg.ManifestsDir)
	for _, d := range cfg.Destinations {
		target := fmt.Sprintf("s3://%s (%s)", d.Bucket, d.Region)
		if d.Endpoint != "" {
			target += " via " + d.Endpoint
		}
		fmt.Printf("  Destination:  %s\n", target)
	}
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Make sure the credentials are in place (profile or static keys).")
	fmt.Println("  2. Run a backup:")
	fmt.Printf("       k3back backup -c %s\n", outputPath)
	fmt.Println("  3. Schedule it from cron at the cadence you need.")
	fmt.Println()
}
