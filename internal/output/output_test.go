package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "Checking oracle...")

	out := buf.String()
	assert.Contains(t, out, "🔍")
	assert.Contains(t, out, "Checking oracle...")
}

func TestWriter_Status_EmptyIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "details line")

	assert.True(t, strings.HasPrefix(buf.String(), "   "))
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("Index complete")

	out := buf.String()
	assert.Contains(t, out, "✅")
	assert.Contains(t, out, "Index complete")
}

func TestWriter_Warning_PrintsWarningIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Warningf("skipped %d paths", 3)

	out := buf.String()
	assert.Contains(t, out, "⚠️")
	assert.Contains(t, out, "skipped 3 paths")
}

func TestWriter_Error_PrintsErrorIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Errorf("oracle unreachable at %s", "http://127.0.0.1:11434")

	out := buf.String()
	assert.Contains(t, out, "❌")
	assert.Contains(t, out, "oracle unreachable at http://127.0.0.1:11434")
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}
