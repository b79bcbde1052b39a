// Package runner executes external commands with captured output.
//
// Every cluster-interaction step goes through this package. Arguments are
// always passed as a discrete list to the OS process launcher, never through
// a shell, so there is no quoting or injection surface.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Result holds the captured outcome of one command invocation.
// Stdout and Stderr are captured separately so a failed command's error text
// can never be mistaken for artifact content.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands with a per-invocation timeout.
type Runner struct {
	log     logr.Logger
	timeout time.Duration
}

// New creates a Runner. A zero timeout disables the per-command deadline.
func New(log logr.Logger, timeout time.Duration) *Runner {
	return &Runner{log: log, timeout: timeout}
}

// Run executes name with args and captures stdout and stderr.
//
// A non-zero exit, a missing executable, or a timeout is reported through the
// error return; the Result is populated in all cases so callers in advisory
// mode can record the captured output and continue. Callers on mandatory
// steps propagate the error instead.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.log.V(1).Info("running command", "command", name, "args", strings.Join(args, " "))

	// #nosec G204 - name and args come from validated config, never from a shell string
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("command %s timed out after %s: %w", name, r.timeout, ctx.Err())
		}
		return res, fmt.Errorf("command %s failed (exit %d): %w: %s",
			name, res.ExitCode, err, strings.TrimSpace(res.Stderr))
	}

	return res, nil
}
