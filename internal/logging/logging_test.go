package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 0)

	log.Info("backup started", "prefix", "backup_2024-01-01_00-00-00")

	out := buf.String()
	assert.Contains(t, out, "k3back")
	assert.Contains(t, out, `"backup started"`)
	assert.Contains(t, out, `"prefix"="backup_2024-01-01_00-00-00"`)
}

func TestNewVerbosityFiltersDebugLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, 0)

	log.V(1).Info("debug detail")
	assert.Empty(t, buf.String())

	verbose := New(&buf, 1)
	verbose.V(1).Info("debug detail")
	assert.Contains(t, buf.String(), "debug detail")
}
