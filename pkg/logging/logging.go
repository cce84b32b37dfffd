// Package logging provides the shared logger used across tutorkit components.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout tutorkit. It is satisfied
// by *logrus.Entry, which also provides Writer() for redirecting subprocess
// output into the log stream.
type Logger = *logrus.Entry

// NewLogger creates a component-scoped logger writing to stderr.
func NewLogger(component string) Logger {
	return logrus.NewEntry(newBaseLogger(os.Stderr)).WithField("component", component)
}

// NewLoggerWithOutput creates a component-scoped logger writing to the given
// output. It is used for server log files.
func NewLoggerWithOutput(component string, output io.Writer) Logger {
	return logrus.NewEntry(newBaseLogger(output)).WithField("component", component)
}

// SetDebug enables debug-level logging process-wide.
func SetDebug(debug bool) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func newBaseLogger(output io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(output)
	log.SetLevel(logrus.GetLevel())
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return log
}
