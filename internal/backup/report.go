package backup

import (
	"github.com/imamik/k3back/internal/cluster"
	"github.com/imamik/k3back/internal/upload"
)

// DestinationReport is the upload outcome for one destination backend.
type DestinationReport struct {
	Name   string
	Bucket string

	// Err is a destination-level failure (client construction, bucket
	// unreachable). When set, no per-file results exist for this
	// destination. It never downgrades the run: failures are isolated per
	// destination.
	Err error

	// Results holds one entry per upload task, in task order.
	Results []upload.Result

	// VerifiedKeys lists the remote keys found by the advisory
	// verification pass; nil when verification was off or failed.
	VerifiedKeys []string
	VerifyErr    error
}

// Uploaded counts the tasks that succeeded.
func (d *DestinationReport) Uploaded() int {
	n := 0
	for _, r := range d.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the tasks that failed.
func (d *DestinationReport) Failed() int {
	return len(d.Results) - d.Uploaded()
}

// Report is the terminal result of one pipeline run. It exists so operators
// can distinguish "succeeded with N degraded sub-steps" from "failed at the
// mandatory step"; collapsing those into one bit would hide whether the
// backup is complete.
type Report struct {
	Run  Run
	Info *cluster.Info

	// FileCount is the number of files found in the staging area at walk
	// time, which is exactly the number of upload tasks per destination.
	FileCount int

	Destinations []DestinationReport
}

// DegradedCount totals every degraded sub-step across collection and upload:
// collection notices, per-file upload failures, destination-level failures,
// and verification failures.
func (r *Report) DegradedCount() int {
	n := 0
	if r.Info != nil {
		n += len(r.Info.Notices)
	}
	for i := range r.Destinations {
		d := &r.Destinations[i]
		if d.Err != nil {
			n++
		}
		if d.VerifyErr != nil {
			n++
		}
		n += d.Failed()
	}
	return n
}
