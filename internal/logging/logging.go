// =============================================================================
// Order Reconciler - Logging
// =============================================================================
//
// All packages log through the small Logger interface below. The CLI backs it
// with a logrus logger writing to stderr and, when configured, a log file.
// Tests use Discard.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface the engine depends on. *logrus.Logger and
// *logrus.Entry both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Options configures New.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Default: "info"
	Level string

	// File, when set, receives a copy of every log line. Parent directories
	// are created.
	File string

	// Verbose forces the debug level.
	Verbose bool

	// Output replaces stderr, mainly for tests.
	Output io.Writer
}

// New builds a logrus logger. The returned close function releases the log
// file and is never nil.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closeFn = f.Close
	}
	logger.SetOutput(out)

	return logger, closeFn, nil
}

// ParseLevel maps a config level name to a logrus level. An empty name is
// "info".
func ParseLevel(name string) (logrus.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return logrus.InfoLevel, nil
	}
	if name == "warning" {
		name = "warn"
	}
	switch name {
	case "debug", "info", "warn", "error":
		return logrus.ParseLevel(name)
	}
	return logrus.InfoLevel, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", name)
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
