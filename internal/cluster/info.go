package cluster

import (
	"fmt"
	"strings"
)

// Info is a snapshot of environment facts gathered once at the start of
// collection. It is read-only after Collect returns and is written to the
// staging area as k3s_info.txt for audit purposes.
type Info struct {
	// Version is the cluster software version string. Empty when the
	// advisory version query failed (recorded as a notice).
	Version string

	// EtcdInUse reports whether the embedded etcd data directory exists on
	// disk. Determined by a direct filesystem check, not a command call.
	EtcdInUse bool

	// ServiceState is the cluster service run state as reported by the
	// service manager (e.g. "active", "inactive").
	ServiceState string

	// Notices records every degraded sub-step of the collection. A notice
	// never aborts the run; callers needing completeness guarantees must
	// inspect them.
	Notices []Notice
}

// Notice records one degraded collection sub-step.
type Notice struct {
	Step   string
	Detail string
}

func (n Notice) String() string {
	return n.Step + ": " + n.Detail
}

// Render returns the k3s_info.txt content, one "key: value" line per field.
func (i *Info) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version: %s\n", i.Version)
	fmt.Fprintf(&b, "etcd_in_use: %t\n", i.EtcdInUse)
	fmt.Fprintf(&b, "service_state: %s\n", i.ServiceState)
	return b.String()
}

func (i *Info) note(step, format string, args ...interface{}) {
	i.Notices = append(i.Notices, Notice{Step: step, Detail: fmt.Sprintf(format, args...)})
}
