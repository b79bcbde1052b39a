// Package metrics records per-run backup metrics in Prometheus format.
//
// k3back is invoked from cron rather than running as a daemon, so instead of
// serving an endpoint the recorder writes a textfile for the node_exporter
// textfile collector after each run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/k3back/internal/backup"
)

// Recorder holds the run gauges on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	success       prometheus.Gauge
	lastSuccessTS prometheus.Gauge
	duration      prometheus.Gauge
	filesStaged   prometheus.Gauge
	filesUploaded prometheus.Gauge
	filesFailed   prometheus.Gauge
	degradedSteps prometheus.Gauge
}

// NewRecorder creates a Recorder with all gauges registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		r.registry.MustRegister(g)
		return g
	}

	r.success = gauge("k3back_last_run_success",
		"Whether the last backup run succeeded (1) or failed at a mandatory step (0).")
	r.lastSuccessTS = gauge("k3back_last_success_timestamp_seconds",
		"Unix timestamp of the last successful backup run.")
	r.duration = gauge("k3back_last_run_duration_seconds",
		"Wall-clock duration of the last backup run.")
	r.filesStaged = gauge("k3back_last_run_files_staged",
		"Number of files found in the staging area of the last run.")
	r.filesUploaded = gauge("k3back_last_run_files_uploaded",
		"Uploaded file count of the last run, summed over destinations.")
	r.filesFailed = gauge("k3back_last_run_files_failed",
		"Failed upload count of the last run, summed over destinations.")
	r.degradedSteps = gauge("k3back_last_run_degraded_steps",
		"Degraded sub-step count of the last run (notices, upload and verification failures).")

	return r
}

// Observe records the outcome of one run. report may be nil when the run
// failed before producing one.
func (r *Recorder) Observe(report *backup.Report, elapsed time.Duration, runErr error) {
	r.duration.Set(elapsed.Seconds())

	if runErr != nil || report == nil {
		r.success.Set(0)
		return
	}

	r.success.Set(1)
	r.lastSuccessTS.Set(float64(time.Now().Unix()))
	r.filesStaged.Set(float64(report.FileCount))

	var uploaded, failed int
	for i := range report.Destinations {
		uploaded += report.Destinations[i].Uploaded()
		failed += report.Destinations[i].Failed()
	}
	r.filesUploaded.Set(float64(uploaded))
	r.filesFailed.Set(float64(failed))
	r.degradedSteps.Set(float64(report.DegradedCount()))
}

// WriteTextfile writes the gauges to path in textfile-collector format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
