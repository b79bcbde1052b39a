// Package backup sequences one point-in-time cluster backup: derive the run,
// collect cluster state into the staging area, then upload the staged files
// to every configured destination.
//
// The run succeeds iff collection's mandatory step succeeded. Upload-phase
// per-file failures never downgrade the run; they are surfaced in the Report.
// Retry is deliberately not built in here; callers wrap the whole pipeline
// if they want it.
package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/k3back/internal/cluster"
	"github.com/imamik/k3back/internal/config"
	"github.com/imamik/k3back/internal/upload"
)

// Collector populates a staging directory with cluster state.
// Satisfied by *cluster.Collector.
type Collector interface {
	Collect(ctx context.Context, dest string) (*cluster.Info, error)
}

// StoreFactory builds the object-store client for one destination.
type StoreFactory func(ctx context.Context, dest config.Destination) (upload.ObjectStore, error)

// Pipeline runs the collect-then-upload sequence.
type Pipeline struct {
	log       logr.Logger
	cfg       *config.Config
	collector Collector
	stores    StoreFactory
	now       func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(log logr.Logger, cfg *config.Config, collector Collector, stores StoreFactory) *Pipeline {
	return &Pipeline{
		log:       log,
		cfg:       cfg,
		collector: collector,
		stores:    stores,
		now:       time.Now,
	}
}

// Execute runs one backup. It returns a Report on success, or an error when
// the staging area could not be created or the mandatory collection step
// failed. The Report carries every degraded sub-step.
func (p *Pipeline) Execute(ctx context.Context) (*Report, error) {
	run := NewRun(p.cfg.StagingBasePath, p.now())
	p.log.Info("starting backup run", "id", run.ID, "staging", run.StagingPath)

	if err := os.MkdirAll(run.StagingPath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory %s: %w", run.StagingPath, err)
	}

	info, err := p.collector.Collect(ctx, run.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("collection for run %s failed: %w", run.ID, err)
	}

	// Enumerate once, after all collection steps complete.
	tasks, err := upload.Tasks(run.StagingPath, run.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate staged files: %w", err)
	}
	if len(tasks) == 0 {
		p.log.Info("staging area holds no files; nothing to upload", "staging", run.StagingPath)
	}

	report := &Report{Run: run, Info: info, FileCount: len(tasks)}
	for _, dest := range p.cfg.Destinations {
		report.Destinations = append(report.Destinations, p.uploadTo(ctx, dest, run, tasks))
	}

	p.log.Info("backup run finished",
		"id", run.ID, "files", report.FileCount, "degraded", report.DegradedCount())
	return report, nil
}

// uploadTo runs the upload and verification pass for one destination.
// Destination-level failures land in the report and never propagate.
func (p *Pipeline) uploadTo(ctx context.Context, dest config.Destination, run Run, tasks []upload.Task) DestinationReport {
	rep := DestinationReport{Name: dest.Name, Bucket: dest.Bucket}
	log := p.log.WithValues("destination", dest.Name, "bucket", dest.Bucket)

	store, err := p.stores(ctx, dest)
	if err != nil {
		rep.Err = fmt.Errorf("failed to build client: %w", err)
		log.Error(err, "destination skipped")
		return rep
	}

	ok, err := store.BucketExists(ctx, dest.Bucket)
	if err != nil {
		rep.Err = err
		log.Error(err, "destination skipped")
		return rep
	}
	if !ok {
		rep.Err = fmt.Errorf("bucket %s does not exist", dest.Bucket)
		log.Error(rep.Err, "destination skipped")
		return rep
	}

	engine := upload.NewEngine(log, store, p.cfg.UploadConcurrency)
	rep.Results = engine.Upload(ctx, dest.Bucket, tasks)

	if p.cfg.Verify {
		rep.VerifiedKeys, rep.VerifyErr = engine.Verify(ctx, dest.Bucket, run.Prefix)
	}

	log.Info("destination done", "uploaded", rep.Uploaded(), "failed", rep.Failed())
	return rep
}
