// Package cluster collects the state of a single-node K3s cluster into a
// local staging directory: the etcd snapshot, per-kind resource exports,
// static manifest copies, and an environment info artifact.
//
// Only the etcd snapshot step is mandatory. Every other sub-step degrades
// gracefully: its failure is recorded as a notice on the returned Info and
// collection continues, so a backup captures as much as possible instead of
// failing atomically on one missing component.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/k3back/internal/runner"
)

// Staging layout, relative to the destination directory. Both subdirectories
// are created unconditionally, populated or not.
const (
	EtcdBackupDir      = "etcd-backup/etcd"
	ManifestsBackupDir = "manifests-backup/manifests"
	InfoFileName       = "k3s_info.txt"
)

// ResourceKinds is the fixed ordered list of resource kinds exported per run.
// Each kind becomes one <kind>.yaml file at the staging root.
var ResourceKinds = []string{
	"deployments",
	"services",
	"configmaps",
	"secrets",
	"ingresses",
	"persistentvolumes",
	"persistentvolumeclaims",
}

// ErrSnapshotFailed marks the mandatory etcd snapshot step failing. It is the
// only collection error that aborts a run.
var ErrSnapshotFailed = errors.New("etcd snapshot failed")

// CommandRunner executes one external command. Satisfied by *runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (runner.Result, error)
}

// Options holds the host-specific paths and command names the collector uses.
type Options struct {
	K3sBinary     string
	KubectlBinary string
	ServiceName   string
	ManifestsDir  string
	EtcdDataDir   string
}

// Collector gathers cluster state into a staging directory.
type Collector struct {
	log  logr.Logger
	run  CommandRunner
	opts Options
}

// New creates a Collector.
func New(log logr.Logger, run CommandRunner, opts Options) *Collector {
	return &Collector{log: log, run: run, opts: opts}
}

// Collect populates dest with the canonical staging layout and returns the
// gathered Info. The returned error is non-nil only for the fatal cases: an
// unwritable staging directory or a failed etcd snapshot.
func (c *Collector) Collect(ctx context.Context, dest string) (*Info, error) {
	info := c.gatherInfo(ctx)

	for _, dir := range []string{EtcdBackupDir, ManifestsBackupDir} {
		if err := os.MkdirAll(filepath.Join(dest, dir), 0o750); err != nil {
			return info, fmt.Errorf("failed to create staging directory %s: %w", dir, err)
		}
	}

	if err := c.snapshotEtcd(ctx, dest, info); err != nil {
		return info, err
	}

	c.exportResources(ctx, dest, info)
	c.copyManifests(dest, info)

	infoPath := filepath.Join(dest, InfoFileName)
	if err := os.WriteFile(infoPath, []byte(info.Render()), 0o600); err != nil {
		return info, fmt.Errorf("failed to write %s: %w", InfoFileName, err)
	}

	c.log.Info("collection complete", "dest", dest, "notices", len(info.Notices))
	return info, nil
}

// gatherInfo determines the environment facts once, before any artifact is
// written. Both command queries are advisory.
func (c *Collector) gatherInfo(ctx context.Context) *Info {
	info := &Info{}

	res, err := c.run.Run(ctx, c.opts.K3sBinary, "--version")
	if err != nil {
		info.note("version", "version query failed: %v", err)
	} else {
		info.Version = firstLine(res.Stdout)
	}

	st, err := os.Stat(c.opts.EtcdDataDir)
	info.EtcdInUse = err == nil && st.IsDir()

	res, err = c.run.Run(ctx, "systemctl", "is-active", c.opts.ServiceName)
	state := strings.TrimSpace(res.Stdout)
	if state != "" {
		// is-active reports "inactive"/"failed" with a non-zero exit; the
		// output is still the answer.
		info.ServiceState = state
	} else if err != nil {
		info.note("service", "service state query failed: %v", err)
	}

	c.log.V(1).Info("gathered cluster info",
		"version", info.Version, "etcdInUse", info.EtcdInUse, "serviceState", info.ServiceState)
	return info
}

// snapshotEtcd runs the mandatory snapshot when etcd is in use. Its failure
// is fatal to the run; etcd not being in use is a recorded skip, not an error.
func (c *Collector) snapshotEtcd(ctx context.Context, dest string, info *Info) error {
	if !info.EtcdInUse {
		info.note("etcd", "data directory %s absent; snapshot skipped", c.opts.EtcdDataDir)
		c.log.Info("etcd not in use, skipping snapshot", "dataDir", c.opts.EtcdDataDir)
		return nil
	}

	snapDir := filepath.Join(dest, EtcdBackupDir)
	if _, err := c.run.Run(ctx, c.opts.K3sBinary, "etcd-snapshot", "save", "--dir", snapDir); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}
	c.log.Info("etcd snapshot saved", "dir", snapDir)
	return nil
}

// exportResources writes one <kind>.yaml per resource kind. A failed export
// writes no file at all; its error text goes into a notice, never into the
// artifact.
func (c *Collector) exportResources(ctx context.Context, dest string, info *Info) {
	for _, kind := range ResourceKinds {
		res, err := c.run.Run(ctx, c.opts.KubectlBinary, "get", kind, "-A", "-o", "yaml")
		if err != nil {
			info.note("export/"+kind, "export failed: %v", err)
			continue
		}

		path := filepath.Join(dest, kind+".yaml")
		if err := os.WriteFile(path, []byte(res.Stdout), 0o600); err != nil {
			info.note("export/"+kind, "write failed: %v", err)
			continue
		}
		c.log.V(1).Info("exported resource kind", "kind", kind)
	}
}

// copyManifests copies every .yaml file from the manifests directory,
// preserving modification times. A missing directory is a recorded skip.
func (c *Collector) copyManifests(dest string, info *Info) {
	entries, err := os.ReadDir(c.opts.ManifestsDir)
	if err != nil {
		if os.IsNotExist(err) {
			info.note("manifests", "directory %s absent; copy skipped", c.opts.ManifestsDir)
			return
		}
		info.note("manifests", "directory read failed: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		src := filepath.Join(c.opts.ManifestsDir, entry.Name())
		dst := filepath.Join(dest, ManifestsBackupDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			info.note("manifests/"+entry.Name(), "copy failed: %v", err)
			continue
		}
		c.log.V(1).Info("copied manifest", "file", entry.Name())
	}
}

// copyFile copies src to dst and carries over the source modification time.
func copyFile(src, dst string) error {
	// #nosec G304 - src is an entry of the configured manifests directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	st, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, st.ModTime(), st.ModTime())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
