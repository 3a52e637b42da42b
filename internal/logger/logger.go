// Package logger provides a centralized logging facility with configurable
// verbosity levels, backed by logrus.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("starting server on %s", addr)
//	logger.WithFields(logrus.Fields{"strike": k}).Debugf("solved iv=%f", iv)
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// FileConfig describes an optional rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var log = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// toLogrus maps a verbosity to the logrus level. Values above Trace clamp.
func (l Level) toLogrus() logrus.Level {
	switch {
	case l <= Error:
		return logrus.ErrorLevel
	case l == Info:
		return logrus.InfoLevel
	case l == Debug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup.
func SetVerbosity(v int) {
	log.SetLevel(Level(v).toLogrus())
}

// Verbosity returns the active verbosity.
func Verbosity() Level {
	switch log.GetLevel() {
	case logrus.TraceLevel:
		return Trace
	case logrus.DebugLevel:
		return Debug
	case logrus.InfoLevel, logrus.WarnLevel:
		return Info
	default:
		return Error
	}
}

// SetOutput redirects log output. Used by tests and by EnableFile.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// EnableFile tees log output into a size-rotated file in addition to stderr.
func EnableFile(cfg FileConfig) error {
	if cfg.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return err
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotating))
	return nil
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	log.Tracef(format, args...)
}
