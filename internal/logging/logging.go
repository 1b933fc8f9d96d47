// Package logging builds the logrus logger shared by commands and services.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ParseLevel maps a configured level name to a logrus level.
// "silent" suppresses everything below panic; unknown names fall back to warn.
func ParseLevel(name string) logrus.Level {
	switch name {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.WarnLevel
	}
}

// New returns a text logger writing to w at the named level.
func New(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(ParseLevel(level))
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return log
}

// Console returns a logger on stderr so stdout stays reserved for results.
func Console(level string) *logrus.Logger {
	return New(os.Stderr, level)
}

// Nop returns a logger that discards everything.
func Nop() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
