// Package upload walks a staging directory and uploads every file to an
// object-storage backend under a shared key prefix.
//
// Uploads are best-effort: each file's outcome is tracked independently and
// one failure never stops the remaining files. One bad object must not void
// an otherwise-successful backup.
package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Task pairs one local file with its destination key.
type Task struct {
	LocalPath string
	Key       string
	Size      int64
}

// Result is the outcome of one Task.
type Result struct {
	Task Task
	Err  error
}

// ObjectStore is the capability one destination backend provides.
// Implemented by the platform s3 client.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Tasks enumerates every regular file under localRoot, pairing it with the
// key <prefix>/<path relative to localRoot>. Keys always use forward slashes
// regardless of the host path convention. Enumeration happens once; there is
// no task for a file that does not exist at walk time.
//
// A missing localRoot yields an empty task list, not an error: an empty
// backup signals an upstream collection problem, observable via the
// collector's own notices.
func Tasks(localRoot, prefix string) ([]Task, error) {
	if _, err := os.Stat(localRoot); os.IsNotExist(err) {
		return nil, nil
	}

	var tasks []Task
	err := filepath.WalkDir(localRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localRoot, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		tasks = append(tasks, Task{
			LocalPath: path,
			Key:       prefix + "/" + filepath.ToSlash(rel),
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk staging directory %s: %w", localRoot, err)
	}
	return tasks, nil
}

// Engine uploads task sets to one destination backend.
type Engine struct {
	log         logr.Logger
	store       ObjectStore
	concurrency int
}

// NewEngine creates an Engine. Concurrency bounds the worker pool; values
// below 1 are treated as 1.
func NewEngine(log logr.Logger, store ObjectStore, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{log: log, store: store, concurrency: concurrency}
}

// Upload attempts every task against bucket and returns one Result per task,
// in task order. Failures are isolated per file; the returned slice always
// has len(tasks) entries.
func (e *Engine) Upload(ctx context.Context, bucket string, tasks []Task) []Result {
	if len(tasks) == 0 {
		e.log.Info("no files to upload", "bucket", bucket)
		return nil
	}

	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			err := e.uploadOne(gctx, bucket, task)
			results[i] = Result{Task: task, Err: err}
			if err != nil {
				e.log.Error(err, "upload failed", "bucket", bucket, "key", task.Key, "file", task.LocalPath)
			} else {
				e.log.V(1).Info("uploaded", "bucket", bucket, "key", task.Key)
			}
			// Worker errors are carried in results; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Engine) uploadOne(ctx context.Context, bucket string, task Task) error {
	// #nosec G304 - path comes from walking the staging directory we created
	f, err := os.Open(task.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", task.LocalPath, err)
	}
	defer func() { _ = f.Close() }()

	return e.store.PutObject(ctx, bucket, task.Key, f, task.Size)
}

// Verify lists the remote keys under prefix as an observability aid after an
// upload pass. It is advisory: callers report its failure but never treat it
// as a pipeline failure.
func (e *Engine) Verify(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys, err := e.store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("verification listing failed: %w", err)
	}
	e.log.Info("verified remote objects", "bucket", bucket, "prefix", prefix, "count", len(keys))
	return keys, nil
}
