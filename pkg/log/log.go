package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout the emulator.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Level is the minimum severity a logger emits.
type Level = logrus.Level

const (
	LevelError = logrus.ErrorLevel
	LevelWarn  = logrus.WarnLevel
	LevelInfo  = logrus.InfoLevel
	LevelDebug = logrus.DebugLevel
)

// New returns a Logger writing to stderr at info level.
func New() Logger {
	return NewWithOutput(os.Stderr, LevelInfo)
}

// NewWithOutput returns a Logger writing to w at the given level.
func NewWithOutput(w io.Writer, level Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.Formatter = &logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
		DisableSorting:   true,
		DisableQuote:     true,
	}
	return l
}

// ParseLevel parses a level name such as "debug" or "error".
func ParseLevel(name string) (Level, error) {
	return logrus.ParseLevel(name)
}
