package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetConsole(&buf)
	defer SetConsole(os.Stderr)
	SetLevel(LevelInfo)

	log := PackageLogger("test")
	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "[test]")
}

func TestRunLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetConsole(&buf)
	defer SetConsole(os.Stderr)

	dir := t.TempDir()
	path, err := OpenRunLog(dir)
	require.NoError(t, err)
	assert.Regexp(t, `dockhand-\d{8}-\d{6}\.log$`, path)

	log := PackageLogger("deploy")
	log.Info("container started")
	log.Error("probe failed")
	log.Success("done")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// One line per event, ISO-like timestamp then severity tag.
	line := regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[(INFO|ERROR|SUCCESS)\] `)
	assert.Len(t, line.FindAll(data, -1), 3)
	assert.Contains(t, string(data), "[ERROR] probe failed")
}

func TestRunLogIsCreatedUnderDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	path, err := OpenRunLog(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}

