package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = Close()
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("staging file", "path", "/tmp/a.txt")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="staging file"`)
	assert.Contains(t, out, "path=/tmp/a.txt")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("also hidden on stderr")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysShown(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("ingestion failed", "stage", "ingest-knowledge")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "stage=ingest-knowledge")
}

func TestSurfaced_FileOnly(t *testing.T) {
	reset(t)

	var stderr bytes.Buffer
	SetOutput(&stderr)
	logFile := filepath.Join(t.TempDir(), "filer.log")
	require.NoError(t, Setup(Options{File: logFile}))

	Error("import failed", "stage", "stage-file", Surfaced())
	Error("listener panicked")
	require.NoError(t, Close())

	assert.NotContains(t, stderr.String(), "import failed")
	assert.Contains(t, stderr.String(), "listener panicked")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"import failed"`)
	assert.Contains(t, string(data), `"surfaced":true`)
}

func TestSetup_WritesJSONFile(t *testing.T) {
	reset(t)

	var stderr bytes.Buffer
	SetOutput(&stderr)
	logFile := filepath.Join(t.TempDir(), "logs", "filer.log")

	require.NoError(t, Setup(Options{File: logFile}))
	Info("import finished", "task", "01HX")
	require.NoError(t, Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "import finished", record["msg"])
	assert.Equal(t, "01HX", record["task"])

	// Info stays off stderr when not verbose.
	assert.Zero(t, stderr.Len())
}

func TestSetupWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	log := SetupWithWriters(&stderr, &file, slog.LevelInfo)

	log.Info("hello", "k", "v")
	log.Debug("dropped")

	assert.Contains(t, stderr.String(), "msg=hello")
	assert.Contains(t, file.String(), `"msg":"hello"`)
	assert.NotContains(t, file.String(), "dropped")
}

func TestConcurrentAccess(t *testing.T) {
	reset(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			SetVerbose(true)
			Debug("concurrent", "i", i)
			IsVerbose()
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
