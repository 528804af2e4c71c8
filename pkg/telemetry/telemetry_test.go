package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/version"
)

func readEntries(t *testing.T, path string) []map[string]interface{} {
	contents, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestLogHook(t *testing.T) {
	fs = afero.NewMemMapFs()
	version.Version = "testing-version"
	defer func() {
		version.Version = version.EmptyValue
		machine = ""
	}()

	path := "/home/user/.worldsync/worldsync.log"
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	logger.AddHook(NewLogHook(path))

	mockTime := time.Unix(1569172899, 0).UTC()

	// Info entries aren't recorded.
	logger.WithTime(mockTime).Info("Pulled world")
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)

	logger.WithFields(logrus.Fields{
		"path":  "/shared/world_sync/mundos.json",
		"error": errors.New("unexpected end of JSON input"),
	}).WithTime(mockTime).Warn("Failed to parse record. Using default.")

	SetMachine("M1")
	func() {
		defer func() {
			recover()
		}()
		logger.WithTime(mockTime).Panic("Panic!")
	}()

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{
		"message":   "Failed to parse record. Using default.",
		"path":      "/shared/world_sync/mundos.json",
		"error":     "unexpected end of JSON input",
		"status":    "warning",
		"timestamp": "2019-09-22T17:21:39Z",
		"version":   "testing-version",
	}, entries[0])
	assert.Equal(t, map[string]interface{}{
		"message":   "Panic!",
		"machine":   "M1",
		"status":    "fatal",
		"timestamp": "2019-09-22T17:21:39Z",
		"version":   "testing-version",
	}, entries[1])
}

func TestLogHookWriteFailure(t *testing.T) {
	fs = afero.NewReadOnlyFs(afero.NewMemMapFs())

	entry := logrus.NewEntry(logrus.New())
	entry.Level = logrus.ErrorLevel
	entry.Message = "message"
	assert.NoError(t, NewLogHook("/log/worldsync.log").Fire(entry))
}

func TestLogHookWriteFailureWithDebugLogging(t *testing.T) {
	fs = afero.NewReadOnlyFs(afero.NewMemMapFs())

	std := logrus.StandardLogger()
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetOutput(ioutil.Discard)
	h := NewLogHook("/log/worldsync.log").(*hook)
	oldHooks := std.ReplaceHooks(logrus.LevelHooks{})
	logrus.AddHook(h)
	defer func() {
		std.ReplaceHooks(oldHooks)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetOutput(os.Stderr)
	}()

	var errOut bytes.Buffer
	h.errLog.SetOutput(&errOut)

	done := make(chan struct{})
	go func() {
		logrus.Warn("Failed to read record")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Warn didn't return after the log write failed")
	}
	assert.Contains(t, errOut.String(), "Failed to write telemetry log")
}
