package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(level Level, jsonFormat bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(level, jsonFormat)
	l.SetOutput(&buf)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	return l, &buf
}

func TestTextFormat(t *testing.T) {
	l, buf := testLogger(INFO, false)

	l.Info("site registered", map[string]interface{}{"site": "Get()", "mode": "threshold"})

	assert.Equal(t, "[2024-03-01 12:30:00] INFO: site registered mode=threshold site=Get()\n", buf.String())
}

func TestLevelFilter(t *testing.T) {
	l, buf := testLogger(WARN, false)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "WARN: shown")
	assert.True(t, l.Enabled(ERROR))
	assert.False(t, l.Enabled(INFO))
}

func TestJSONFormat(t *testing.T) {
	l, buf := testLogger(DEBUG, true)

	l.WithField("category", "store").Debug("line")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "line", entry.Message)
	assert.Equal(t, "store", entry.Fields["category"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := testLogger(INFO, false)

	child := l.WithField("a", 1)
	l.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "a=1")
	assert.Contains(t, lines[1], "a=1")
}

func TestFatalExits(t *testing.T) {
	l, _ := testLogger(INFO, false)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("bye")

	assert.Equal(t, 1, code)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel("Error"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestGenerateLogrotateConfig(t *testing.T) {
	cfg := GenerateLogrotateConfig("/var/log/calltiming", 0)

	assert.Contains(t, cfg, "/var/log/calltiming/*.log {")
	assert.Contains(t, cfg, "rotate 14")
	assert.Contains(t, cfg, "copytruncate")
}

func quietFileLogger(t *testing.T, path string) *Logger {
	t.Helper()
	l, err := OpenFileLogger(path, INFO, false)
	require.NoError(t, err)
	l.out.console = io.Discard
	l.out.w = io.MultiWriter(l.out.file, io.Discard)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRotateIfNeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l := quietFileLogger(t, path)

	l.Info("short")
	require.NoError(t, l.RotateIfNeeded(1024))
	_, err := os.Stat(path + ".20240301-123000")
	assert.True(t, os.IsNotExist(err), "rotated below the size limit")

	l.Info(strings.Repeat("x", 200))
	require.NoError(t, l.RotateIfNeeded(100))

	rotated, err := os.ReadFile(path + ".20240301-123000")
	require.NoError(t, err)
	assert.Contains(t, string(rotated), "INFO: short")

	l.Info("after rotation")
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[2024-03-01 12:30:00] INFO: after rotation\n", string(current))
}

func TestRotateIfNeededWithoutFile(t *testing.T) {
	l, _ := testLogger(INFO, false)

	assert.NoError(t, l.RotateIfNeeded(0))
}

func TestStartRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l := quietFileLogger(t, path)
	l.Info(strings.Repeat("x", 200))

	stop := l.StartRotation(5*time.Millisecond, 100)
	defer stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path + ".20240301-123000")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	stop()
	stop()
}
