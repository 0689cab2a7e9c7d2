package logs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, false)
	l.Debug("hidden", "k", 1)
	l.Info("chunk_written", "offset", 3, "records", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "chunk_written")
	assert.Contains(t, out, "offset=3")

	buf.Reset()
	NewText(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
