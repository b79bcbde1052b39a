package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
)

// bucketNameRegex validates S3 bucket name format: 3-63 lowercase
// alphanumeric characters, dots, and hyphens.
var bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// WizardResult holds the answers from the interactive wizard.
type WizardResult struct {
	StagingBasePath string
	ManifestsDir    string

	Bucket   string
	Region   string
	Profile  string
	Endpoint string

	Verify bool
}

// RunWizard runs the interactive configuration wizard.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		ManifestsDir: DefaultManifestsDir,
		Verify:       true,
	}

	if err := runPathsGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("local paths: %w", err)
	}
	if err := runDestinationGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	return result, nil
}

// runPathsGroup prompts for the local staging and manifests paths.
func runPathsGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Staging Base Path").
				Description("Local directory where per-run backup_<timestamp> directories are created").
				Placeholder("/var/backups/k3s").
				Value(&result.StagingBasePath).
				Validate(validateRequired("staging base path")),
			huh.NewInput().
				Title("Manifests Directory").
				Description("K3s static manifests directory (copied into each backup)").
				Value(&result.ManifestsDir),
		).Title("Local Paths"),
	).RunWithContext(ctx)
}

// runDestinationGroup prompts for the first object-storage destination.
// Additional destinations can be added to the generated file by hand.
func runDestinationGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("S3 Bucket").
				Description("Bucket the backup archives are uploaded to").
				Placeholder("my-cluster-backups").
				Value(&result.Bucket).
				Validate(validateBucketName),
			huh.NewInput().
				Title("Region").
				Placeholder("eu-central-1").
				Value(&result.Region).
				Validate(validateRequired("region")),
			huh.NewInput().
				Title("AWS Profile").
				Description("Shared-config profile holding the credentials. Leave empty to use the default chain.").
				Value(&result.Profile),
			huh.NewInput().
				Title("Custom Endpoint (Optional)").
				Description("For S3-compatible stores such as Wasabi or MinIO").
				Placeholder("https://s3.eu-central-1.wasabisys.com").
				Value(&result.Endpoint),
			huh.NewConfirm().
				Title("Verify uploads?").
				Description("List remote objects after upload and report what was found").
				Value(&result.Verify),
		).Title("Object Storage Destination"),
	).RunWithContext(ctx)
}

// ToConfig converts the wizard answers into a Config with defaults filled in.
func (w *WizardResult) ToConfig() *Config {
	return &Config{
		StagingBasePath:   w.StagingBasePath,
		ManifestsDir:      w.ManifestsDir,
		EtcdDataDir:       DefaultEtcdDataDir,
		K3sBinary:         DefaultK3sBinary,
		KubectlBinary:     DefaultKubectlBinary,
		ServiceName:       DefaultServiceName,
		CommandTimeout:    DefaultCommandTimeout,
		UploadConcurrency: DefaultConcurrency,
		Verify:            w.Verify,
		Destinations: []Destination{
			{
				Name:     w.Bucket,
				Bucket:   w.Bucket,
				Region:   w.Region,
				Profile:  w.Profile,
				Endpoint: w.Endpoint,
			},
		},
	}
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be empty", field)
		}
		return nil
	}
}

func validateBucketName(s string) error {
	if !bucketNameRegex.MatchString(s) {
		return fmt.Errorf("bucket name must be 3-63 lowercase alphanumeric characters, dots, or hyphens")
	}
	return nil
}
