// Package hostlog sets up logging for the host programs
package hostlog

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"radiolink/core"
)

// New creates a text logger writing to stdout. An unknown level falls back
// to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Formatter = new(logrus.TextFormatter)
	log.Level = ParseLevel(level)
	log.Out = os.Stdout
	return log
}

// ParseLevel converts a level name, defaulting to info
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SetOutput redirects log to w
func SetOutput(log *logrus.Logger, w io.Writer) {
	log.Out = w
}

// DebugWriter adapts log to the controller debug hook. Messages are logged
// at debug level with the component field set.
func DebugWriter(log logrus.FieldLogger, component string) core.DebugWriter {
	entry := log.WithField("component", component)
	return func(msg string) {
		entry.Debug(strings.TrimRight(msg, "\r\n"))
	}
}
