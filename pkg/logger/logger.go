package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// FileHook appends warn-and-above entries to logs/errors.log, bounded to
// maxEntries lines so the file never grows without limit.
type FileHook struct {
	logDir     string
	maxEntries int
	entries    []LogEntry
	mutex      sync.Mutex
}

var (
	fileHook *FileHook
	once     sync.Once
)

// Init configures the process-wide logrus instance: level, JSON output and
// the bounded error file hook.
func Init(level string, maxEntries int) {
	once.Do(func() {
		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		logrus.SetLevel(logLevel)

		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})

		logDir := "logs"
		if err := os.MkdirAll(logDir, 0755); err != nil {
			logrus.WithError(err).Error("failed to create log directory")
			return
		}

		fileHook = &FileHook{
			logDir:     logDir,
			maxEntries: maxEntries,
		}
		logrus.AddHook(fileHook)
	})
}

// Fire implements logrus.Hook.
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	logEntry := LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    make(map[string]interface{}),
	}
	for k, v := range entry.Data {
		logEntry.Fields[k] = v
	}

	hook.entries = append(hook.entries, logEntry)
	if len(hook.entries) > hook.maxEntries {
		hook.entries = hook.entries[len(hook.entries)-hook.maxEntries:]
	}

	return hook.writeToFile()
}

// Levels reports which levels the hook records.
func (hook *FileHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (hook *FileHook) writeToFile() error {
	filename := filepath.Join(hook.logDir, "errors.log")

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, e := range hook.entries {
		if data, err := json.Marshal(e); err == nil {
			file.WriteString(string(data) + "\n")
		}
	}
	return nil
}
