// Package telemetry records warnings and errors to a local log file, so that
// problems reading the shared folder can be diagnosed after the fact. Nothing
// is sent over the network.
package telemetry

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/version"
)

// DefaultLogPath is where the log hook writes by default.
const DefaultLogPath = "~/.worldsync/worldsync.log"

var (
	// machine is automatically added to every entry if set.
	machine string

	// Mocked out for unit testing.
	fs = afero.NewOsFs()
)

// formatter writes one JSON object per line.
var formatter = &logrus.JSONFormatter{
	FieldMap: logrus.FieldMap{
		logrus.FieldKeyTime:  "timestamp",
		logrus.FieldKeyLevel: "status",
		logrus.FieldKeyMsg:   "message",
	},
}

// NewLogHook creates a new hook that appends warnings and errors to the file
// at `path`.
func NewLogHook(path string) logrus.Hook {
	levels := []logrus.Level{
		logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel,
	}

	// Failures are reported through a separate logger. Logging them through
	// the logger that fired the hook would deadlock, since the logger is
	// locked while its hooks run.
	errLog := logrus.New()
	errLog.SetOutput(os.Stderr)
	errLog.SetLevel(logrus.GetLevel())
	return &hook{levels: levels, path: path, errLog: errLog}
}

// SetMachine sets the machine ID that is automatically added to log entries.
func SetMachine(id string) {
	machine = id
}

type hook struct {
	levels []logrus.Level
	path   string
	errLog *logrus.Logger

	// lock serializes appends from concurrent loggers.
	lock sync.Mutex
}

func (h *hook) Levels() []logrus.Level {
	return h.levels
}

func (h *hook) Fire(entry *logrus.Entry) error {
	dataCopy := map[string]interface{}{
		"version": version.Version,
	}
	if machine != "" {
		dataCopy["machine"] = machine
	}
	for k, v := range entry.Data {
		dataCopy[k] = v
	}

	// Copy the entry so that we don't change it when we add the
	// telemetry-specific values to Data.
	entryCopy := *entry
	entryCopy.Data = dataCopy

	// Panics are logged as fatal errors so that there's a single level to
	// search for crashes.
	if entry.Level == logrus.PanicLevel {
		entryCopy.Level = logrus.FatalLevel
	}

	jsonBytes, err := formatter.Format(&entryCopy)
	if err != nil {
		h.errLog.WithError(err).Debug("Failed to marshal log entry for telemetry")
		return nil
	}

	if err := h.append(jsonBytes); err != nil {
		h.errLog.WithError(err).Debug("Failed to write telemetry log")
	}

	// Never return an error because doing so causes the error to be printed
	// directly to `stderr`, which clutters the CLI output:
	// https://github.com/Sirupsen/logrus/issues/116
	return nil
}

func (h *hook) append(data []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if err := fs.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return err
	}

	f, err := fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
