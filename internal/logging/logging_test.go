package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesPlainLineWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.color = false

	l.Info("claimed task %s", "T1")

	assert.Equal(t, "[INFO] claimed task T1\n", buf.String())
}

func TestLogger_SuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithLevel(LevelWarn))
	l.color = false

	l.Debug("noisy")
	l.Info("still noisy")
	l.Warn("this one shows")

	assert.Equal(t, "[WARN] this one shows\n", buf.String())
}

func TestLogger_PrefixIsPrependedToMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithPrefix("[repo]"))
	l.color = false

	l.Error("write failed: %v", "disk full")

	assert.Equal(t, "[ERROR] [repo] write failed: disk full\n", buf.String())
}

func TestWith_NestsPrefixUnderParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, WithPrefix("[edison]"))
	parent.color = false
	child := parent.With("composition")

	child.Info("rendered template")

	assert.Equal(t, "[INFO] [edison] [composition] rendered template\n", buf.String())
}

func TestWithFileSink_MirrorsLinesToFile(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	logPath := filepath.Join(dir, "edison.log")

	l := New(&buf, WithFileSink(logPath, 1, 1))
	l.color = false

	l.Info("mirrored line")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "[INFO] mirrored line\n", string(data))
}

func TestLevel_StringNamesEachSeverity(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}
