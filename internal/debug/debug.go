package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/treesearch/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output (set while serving MCP over stdio)
var QuietMode = false

var (
	logger    = newLogger()
	debugFile *os.File

	// debugMutex protects logger output and debugFile
	debugMutex sync.Mutex
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})
	return l
}

// SetQuietMode enables quiet mode which suppresses all debug output
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	if w == nil {
		w = io.Discard
	}
	logger.SetOutput(w)
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "treesearch-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	logger.SetOutput(file)
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		logger.SetOutput(io.Discard)
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled and we're not in quiet mode
func IsDebugEnabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("TREESEARCH_DEBUG")
	return v == "1" || v == "true"
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	debugMutex.Lock()
	defer debugMutex.Unlock()
	logger.WithField("component", component).Debugf(format, args...)
}

// LogFields logs a message with extra structured fields
func LogFields(component string, fields map[string]interface{}, msg string) {
	if !IsDebugEnabled() {
		return
	}
	debugMutex.Lock()
	defer debugMutex.Unlock()
	logger.WithField("component", component).WithFields(logrus.Fields(fields)).Debug(msg)
}

// LogSearch logs engine-level query activity
func LogSearch(format string, args ...interface{}) {
	Log("SEARCH", format, args...)
}

// LogBackend logs backend activity (subprocesses, stores, line indexes)
func LogBackend(format string, args ...interface{}) {
	Log("BACKEND", format, args...)
}

// LogCache logs cache hits, misses and evictions
func LogCache(format string, args ...interface{}) {
	Log("CACHE", format, args...)
}

// LogMCP logs MCP server activity
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}

// Warn always writes, regardless of debug mode, unless quiet mode is on.
func Warn(format string, args ...interface{}) {
	if QuietMode {
		return
	}
	debugMutex.Lock()
	defer debugMutex.Unlock()
	logger.Warnf(format, args...)
}
