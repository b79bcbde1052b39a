package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3back/internal/backup"
	"github.com/imamik/k3back/internal/cluster"
	"github.com/imamik/k3back/internal/upload"
)

func sampleReport() *backup.Report {
	info := &cluster.Info{}
	info.Notices = append(info.Notices, cluster.Notice{Step: "manifests", Detail: "directory absent"})
	return &backup.Report{
		Info:      info,
		FileCount: 3,
		Destinations: []backup.DestinationReport{
			{
				Name:   "primary",
				Bucket: "bucket",
				Results: []upload.Result{
					{Task: upload.Task{Key: "p/a.yaml"}},
					{Task: upload.Task{Key: "p/b.yaml"}},
					{Task: upload.Task{Key: "p/c.yaml"}, Err: errors.New("throttled")},
				},
			},
		},
	}
}

func TestObserveSuccessfulRun(t *testing.T) {
	r := NewRecorder()

	r.Observe(sampleReport(), 42*time.Second, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.success))
	assert.Equal(t, float64(42), testutil.ToFloat64(r.duration))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.filesStaged))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.filesUploaded))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.filesFailed))
	// One notice plus one upload failure.
	assert.Equal(t, float64(2), testutil.ToFloat64(r.degradedSteps))
	assert.Greater(t, testutil.ToFloat64(r.lastSuccessTS), float64(0))
}

func TestObserveFailedRun(t *testing.T) {
	r := NewRecorder()

	r.Observe(nil, time.Second, errors.New("snapshot failed"))

	assert.Equal(t, float64(0), testutil.ToFloat64(r.success))
	assert.Equal(t, float64(0), testutil.ToFloat64(r.lastSuccessTS))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleReport(), time.Minute, nil)

	path := filepath.Join(t.TempDir(), "k3back.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "k3back_last_run_success 1")
	assert.Contains(t, string(data), "k3back_last_run_files_uploaded 2")
}
