package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, &buf)
	logger.Debug("hidden")
	logger.Info("loaded fixture", zap.String("table", "test.supplier"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "loaded fixture")
	assert.Contains(t, out, `"table": "test.supplier"`)

	buf.Reset()
	New(true, &buf).Debug("shown")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "shown")
}
