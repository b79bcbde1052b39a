package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k3back.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
staging_base_path: /var/backups/k3s
destinations:
  - bucket: my-backups
    region: eu-central-1
    profile: backup
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/backups/k3s", cfg.StagingBasePath)
	assert.Equal(t, DefaultManifestsDir, cfg.ManifestsDir)
	assert.Equal(t, DefaultEtcdDataDir, cfg.EtcdDataDir)
	assert.Equal(t, "k3s", cfg.K3sBinary)
	assert.Equal(t, "kubectl", cfg.KubectlBinary)
	assert.Equal(t, "k3s", cfg.ServiceName)
	assert.Equal(t, 5*time.Minute, cfg.CommandTimeout)
	assert.Equal(t, 4, cfg.UploadConcurrency)
	assert.True(t, cfg.Verify)
	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "my-backups", cfg.Destinations[0].Name)
}

func TestLoadFileParsesDurations(t *testing.T) {
	path := writeConfigFile(t, `
staging_base_path: /var/backups/k3s
command_timeout: 90s
destinations:
  - bucket: b
    region: r
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.CommandTimeout)
}

func TestLoadFileVerifyExplicitlyDisabled(t *testing.T) {
	path := writeConfigFile(t, `
staging_base_path: /var/backups/k3s
verify: false
destinations:
  - bucket: b
    region: r
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Verify)
}

func TestLoadFileMultipleDestinations(t *testing.T) {
	path := writeConfigFile(t, `
staging_base_path: /var/backups/k3s
destinations:
  - name: aws
    bucket: primary
    region: eu-central-1
    profile: backup
  - name: wasabi
    bucket: offsite
    region: eu-central-2
    endpoint: https://s3.eu-central-2.wasabisys.com
    access_key: AKIA_TEST
    secret_key: secret
    path_style: true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Destinations, 2)
	assert.Equal(t, "aws", cfg.Destinations[0].Name)
	assert.Equal(t, "https://s3.eu-central-2.wasabisys.com", cfg.Destinations[1].Endpoint)
	assert.True(t, cfg.Destinations[1].PathStyle)
}

func TestLoadFileValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing staging path",
			content: "destinations:\n  - bucket: b\n    region: r\n",
			wantErr: "staging_base_path is required",
		},
		{
			name:    "no destinations",
			content: "staging_base_path: /tmp/b\n",
			wantErr: "at least one destination",
		},
		{
			name:    "destination without bucket",
			content: "staging_base_path: /tmp/b\ndestinations:\n  - region: r\n",
			wantErr: "bucket is required",
		},
		{
			name:    "destination without region",
			content: "staging_base_path: /tmp/b\ndestinations:\n  - bucket: b\n",
			wantErr: "region is required",
		},
		{
			name: "profile and static keys together",
			content: `staging_base_path: /tmp/b
destinations:
  - bucket: b
    region: r
    profile: p
    access_key: a
    secret_key: s
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "access key without secret",
			content: `staging_base_path: /tmp/b
destinations:
  - bucket: b
    region: r
    access_key: a
`,
			wantErr: "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestWriteFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k3back.yaml")
	in := &Config{
		StagingBasePath:   "/var/backups/k3s",
		ManifestsDir:      DefaultManifestsDir,
		EtcdDataDir:       DefaultEtcdDataDir,
		K3sBinary:         "k3s",
		KubectlBinary:     "kubectl",
		ServiceName:       "k3s",
		CommandTimeout:    2 * time.Minute,
		UploadConcurrency: 8,
		Verify:            true,
		Destinations: []Destination{
			{Name: "aws", Bucket: "primary", Region: "eu-central-1", Profile: "backup"},
		},
	}

	require.NoError(t, WriteFile(in, path))

	out, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.StagingBasePath, out.StagingBasePath)
	assert.Equal(t, in.CommandTimeout, out.CommandTimeout)
	assert.Equal(t, in.UploadConcurrency, out.UploadConcurrency)
	assert.Equal(t, in.Destinations, out.Destinations)
}
