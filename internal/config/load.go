package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(rawConfig); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(&cfg, rawConfig)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset fields with their defaults. The raw map is
// consulted for booleans whose zero value is a meaningful setting.
func applyDefaults(cfg *Config, rawConfig map[string]interface{}) {
	if cfg.ManifestsDir == "" {
		cfg.ManifestsDir = DefaultManifestsDir
	}
	if cfg.EtcdDataDir == "" {
		cfg.EtcdDataDir = DefaultEtcdDataDir
	}
	if cfg.K3sBinary == "" {
		cfg.K3sBinary = DefaultK3sBinary
	}
	if cfg.KubectlBinary == "" {
		cfg.KubectlBinary = DefaultKubectlBinary
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.UploadConcurrency == 0 {
		cfg.UploadConcurrency = DefaultConcurrency
	}
	if _, set := rawConfig["verify"]; !set {
		// Verification defaults to on; false only when explicitly disabled.
		cfg.Verify = true
	}
	for i := range cfg.Destinations {
		if cfg.Destinations[i].Name == "" {
			cfg.Destinations[i].Name = cfg.Destinations[i].Bucket
		}
	}
}

// fileConfig mirrors Config for YAML output. Durations are written in their
// human-readable form so the file round-trips through LoadFile.
type fileConfig struct {
	StagingBasePath   string        `yaml:"staging_base_path"`
	ManifestsDir      string        `yaml:"manifests_dir"`
	EtcdDataDir       string        `yaml:"etcd_data_dir"`
	K3sBinary         string        `yaml:"k3s_binary"`
	KubectlBinary     string        `yaml:"kubectl_binary"`
	ServiceName       string        `yaml:"service_name"`
	CommandTimeout    string        `yaml:"command_timeout"`
	UploadConcurrency int           `yaml:"upload_concurrency"`
	Verify            bool          `yaml:"verify"`
	MetricsTextfile   string        `yaml:"metrics_textfile,omitempty"`
	Destinations      []Destination `yaml:"destinations"`
}

const fileHeader = `# k3back configuration
#
# Generated by "k3back init". Edit as needed; every field shown here is
# consumed by "k3back backup -c <this file>".
`

// WriteFile writes cfg as a commented YAML file at path, overwriting any
// existing file.
func WriteFile(cfg *Config, path string) error {
	out := fileConfig{
		StagingBasePath:   cfg.StagingBasePath,
		ManifestsDir:      cfg.ManifestsDir,
		EtcdDataDir:       cfg.EtcdDataDir,
		K3sBinary:         cfg.K3sBinary,
		KubectlBinary:     cfg.KubectlBinary,
		ServiceName:       cfg.ServiceName,
		CommandTimeout:    cfg.CommandTimeout.String(),
		UploadConcurrency: cfg.UploadConcurrency,
		Verify:            cfg.Verify,
		MetricsTextfile:   cfg.MetricsTextfile,
		Destinations:      cfg.Destinations,
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader+"\n"), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
