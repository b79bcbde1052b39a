package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3back/internal/cluster"
	"github.com/imamik/k3back/internal/config"
	"github.com/imamik/k3back/internal/upload"
)

// fakeCollector writes a canned staging layout instead of touching a cluster.
type fakeCollector struct {
	files map[string]string
	info  *cluster.Info
	err   error
}

func (f *fakeCollector) Collect(_ context.Context, dest string) (*cluster.Info, error) {
	if f.err != nil {
		return f.info, f.err
	}
	for rel, content := range f.files {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return nil, err
		}
	}
	if f.info == nil {
		f.info = &cluster.Info{}
	}
	return f.info, nil
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu           sync.Mutex
	puts         map[string][]byte
	failKeys     map[string]bool
	bucketExists bool
	headErr      error
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{puts: map[string][]byte{}, failKeys: map[string]bool{}, bucketExists: true}
}

func (s *fakeStore) BucketExists(context.Context, string) (bool, error) {
	return s.bucketExists, s.headErr
}

func (s *fakeStore) PutObject(_ context.Context, _, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failKeys[key] {
		return errors.New("simulated upload failure")
	}
	s.puts[key] = data
	return nil
}

func (s *fakeStore) ListObjects(context.Context, string, string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.puts))
	for k := range s.puts {
		keys = append(keys, k)
	}
	return keys, nil
}

func testConfig(t *testing.T, dests ...config.Destination) *config.Config {
	t.Helper()
	if len(dests) == 0 {
		dests = []config.Destination{{Name: "primary", Bucket: "bucket", Region: "eu-central-1"}}
	}
	return &config.Config{
		StagingBasePath:   t.TempDir(),
		UploadConcurrency: 2,
		Verify:            true,
		Destinations:      dests,
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestExecuteUploadsEveryStagedFile(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{
		"deployments.yaml":                  "d",
		"etcd-backup/etcd/snapshot.db":      "s",
		"manifests-backup/manifests/x.yaml": "x",
	}}
	store := newFakeStore()
	cfg := testConfig(t)

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })
	p.now = fixedClock

	report, err := p.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "backup_2024-01-01_00-00-00", report.Run.Prefix)
	assert.Equal(t, 3, report.FileCount)
	require.Len(t, report.Destinations, 1)
	assert.Equal(t, 3, report.Destinations[0].Uploaded())
	assert.Zero(t, report.Destinations[0].Failed())

	assert.Contains(t, store.puts, "backup_2024-01-01_00-00-00/deployments.yaml")
	assert.Contains(t, store.puts, "backup_2024-01-01_00-00-00/etcd-backup/etcd/snapshot.db")
	assert.Contains(t, store.puts, "backup_2024-01-01_00-00-00/manifests-backup/manifests/x.yaml")

	assert.Len(t, report.Destinations[0].VerifiedKeys, 3)
	assert.Zero(t, report.DegradedCount())
}

func TestExecuteCollectionFailureIsTerminal(t *testing.T) {
	collector := &fakeCollector{err: cluster.ErrSnapshotFailed}
	p := NewPipeline(logr.Discard(), testConfig(t), collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) {
			t.Fatal("no store should be built when collection fails")
			return nil, nil
		})

	_, err := p.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cluster.ErrSnapshotFailed)
}

func TestExecutePerFileFailureDoesNotDowngradeRun(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{
		"a.yaml": "a",
		"b.yaml": "b",
	}}
	store := newFakeStore()
	store.failKeys["backup_2024-01-01_00-00-00/a.yaml"] = true
	cfg := testConfig(t)
	cfg.Verify = false

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })
	p.now = fixedClock

	report, err := p.Execute(context.Background())
	require.NoError(t, err, "per-file failures must not fail the run")

	require.Len(t, report.Destinations, 1)
	assert.Equal(t, 1, report.Destinations[0].Uploaded())
	assert.Equal(t, 1, report.Destinations[0].Failed())
	assert.Equal(t, 1, report.DegradedCount())
}

func TestExecuteMultiDestinationFailuresAreIsolated(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{"a.yaml": "a"}}
	good := newFakeStore()
	cfg := testConfig(t,
		config.Destination{Name: "aws", Bucket: "primary", Region: "r"},
		config.Destination{Name: "wasabi", Bucket: "offsite", Region: "r"},
	)
	cfg.Verify = false

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(_ context.Context, d config.Destination) (upload.ObjectStore, error) {
			if d.Name == "wasabi" {
				return nil, errors.New("credentials missing")
			}
			return good, nil
		})
	p.now = fixedClock

	report, err := p.Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Destinations, 2)
	assert.NoError(t, report.Destinations[0].Err)
	assert.Equal(t, 1, report.Destinations[0].Uploaded())
	assert.Error(t, report.Destinations[1].Err)
	assert.Equal(t, 1, report.DegradedCount())
}

func TestExecuteMissingBucketIsDestinationFailure(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{"a.yaml": "a"}}
	store := newFakeStore()
	store.bucketExists = false
	cfg := testConfig(t)

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })

	report, err := p.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Destinations, 1)
	assert.ErrorContains(t, report.Destinations[0].Err, "does not exist")
	assert.Empty(t, store.puts)
}

func TestExecuteEmptyStagingIsNotAnError(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{}}
	store := newFakeStore()
	cfg := testConfig(t)
	cfg.Verify = false

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })

	report, err := p.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.FileCount)
	require.Len(t, report.Destinations, 1)
	assert.Empty(t, report.Destinations[0].Results)
}

func TestExecuteVerificationFailureIsAdvisory(t *testing.T) {
	collector := &fakeCollector{files: map[string]string{"a.yaml": "a"}}
	store := newFakeStore()
	store.listErr = errors.New("listing denied")
	cfg := testConfig(t)

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })

	report, err := p.Execute(context.Background())
	require.NoError(t, err, "verification failure must not fail the pipeline")
	require.Len(t, report.Destinations, 1)
	assert.Error(t, report.Destinations[0].VerifyErr)
	assert.Equal(t, 1, report.Destinations[0].Uploaded())
	assert.Equal(t, 1, report.DegradedCount())
}

func TestExecuteSurfacesCollectionNotices(t *testing.T) {
	info := &cluster.Info{}
	info.Notices = append(info.Notices, cluster.Notice{Step: "export/secrets", Detail: "export failed"})
	collector := &fakeCollector{files: map[string]string{"a.yaml": "a"}, info: info}
	store := newFakeStore()
	cfg := testConfig(t)
	cfg.Verify = false

	p := NewPipeline(logr.Discard(), cfg, collector,
		func(context.Context, config.Destination) (upload.ObjectStore, error) { return store, nil })

	report, err := p.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DegradedCount())
	require.NotNil(t, report.Info)
	assert.Len(t, report.Info.Notices, 1)
}
