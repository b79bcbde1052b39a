// Package config defines and loads the k3back configuration.
//
// Configuration is a single YAML file holding local paths, external command
// names, upload tuning, and one or more object-storage destinations. Loading
// applies defaults and validates before the config is handed to the pipeline.
package config

import (
	"fmt"
	"time"
)

// Default values applied by LoadFile when the field is absent.
const (
	DefaultManifestsDir   = "/var/lib/rancher/k3s/server/manifests"
	DefaultEtcdDataDir    = "/var/lib/rancher/k3s/server/db/etcd"
	DefaultK3sBinary      = "k3s"
	DefaultKubectlBinary  = "kubectl"
	DefaultServiceName    = "k3s"
	DefaultCommandTimeout = 5 * time.Minute
	DefaultConcurrency    = 4
)

// Config is the top-level k3back configuration.
type Config struct {
	// StagingBasePath is the local directory under which per-run staging
	// directories (backup_<timestamp>) are created. Required.
	StagingBasePath string `mapstructure:"staging_base_path" yaml:"staging_base_path"`

	// ManifestsDir is the K3s static manifests directory. Its absence at
	// backup time is tolerated.
	ManifestsDir string `mapstructure:"manifests_dir" yaml:"manifests_dir"`

	// EtcdDataDir is checked on disk to decide whether the cluster runs
	// embedded etcd. When absent, the snapshot step is skipped.
	EtcdDataDir string `mapstructure:"etcd_data_dir" yaml:"etcd_data_dir"`

	K3sBinary     string `mapstructure:"k3s_binary" yaml:"k3s_binary"`
	KubectlBinary string `mapstructure:"kubectl_binary" yaml:"kubectl_binary"`

	// ServiceName is the systemd unit queried for the cluster service state.
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// CommandTimeout bounds each external command invocation.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`

	// UploadConcurrency bounds the per-destination upload worker pool.
	UploadConcurrency int `mapstructure:"upload_concurrency" yaml:"upload_concurrency"`

	// Verify enables the advisory post-upload listing pass.
	Verify bool `mapstructure:"verify" yaml:"verify"`

	// MetricsTextfile, when set, is the path the run metrics are written to
	// in Prometheus textfile-collector format.
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile,omitempty"`

	// Destinations lists the object-storage backends every backup is
	// uploaded to. At least one is required.
	Destinations []Destination `mapstructure:"destinations" yaml:"destinations"`
}

// Destination describes one S3-compatible upload target.
// Credentials come from the shared-config profile unless a static access/secret
// key pair is set; with neither, the SDK default credential chain applies.
type Destination struct {
	// Name identifies the destination in logs and reports. Defaults to Bucket.
	Name      string `mapstructure:"name" yaml:"name,omitempty"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Profile   string `mapstructure:"profile" yaml:"profile,omitempty"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style,omitempty"`
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.StagingBasePath == "" {
		return fmt.Errorf("staging_base_path is required")
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}
	for i, d := range c.Destinations {
		if d.Bucket == "" {
			return fmt.Errorf("destination %d (%s): bucket is required", i, d.Name)
		}
		if d.Region == "" {
			return fmt.Errorf("destination %d (%s): region is required", i, d.Name)
		}
		if d.Profile != "" && (d.AccessKey != "" || d.SecretKey != "") {
			return fmt.Errorf("destination %d (%s): profile and static keys are mutually exclusive", i, d.Name)
		}
		if (d.AccessKey == "") != (d.SecretKey == "") {
			return fmt.Errorf("destination %d (%s): access_key and secret_key must be set together", i, d.Name)
		}
	}
	if c.UploadConcurrency < 0 {
		return fmt.Errorf("upload_concurrency must not be negative")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative")
	}
	return nil
}
