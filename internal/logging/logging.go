// Package logging constructs the logr.Logger instances handed to every
// component at construction time. There is no package-level logger; callers
// own the logger they create and pass it down explicitly.
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logger that writes one structured line per call to out.
// Lines have the form:
//
//	2024-01-01T00:00:00Z k3back "msg"="..." "key"="value"
//
// Verbosity controls which V-levels are emitted; 0 shows only Info and Error.
func New(out io.Writer, verbosity int) logr.Logger {
	var mu sync.Mutex
	write := func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		ts := time.Now().UTC().Format(time.RFC3339)
		if prefix != "" {
			fmt.Fprintf(out, "%s %s %s\n", ts, prefix, args)
		} else {
			fmt.Fprintf(out, "%s %s\n", ts, args)
		}
	}
	return funcr.New(write, funcr.Options{Verbosity: verbosity}).WithName("k3back")
}
