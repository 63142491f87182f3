// Package log holds the logger shared by the debkit packages.
//
// The deb package logs at debug level only. The default logger discards
// everything, so importing the deb or repo packages never writes to stderr
// unless the host application calls Set.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var log = newDiscard()

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	return l
}

// Set replaces the shared logger. A nil logger restores the discarding default.
func Set(l *logrus.Logger) {
	if l == nil {
		l = newDiscard()
	}
	log = l
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// Warnf logs at warning level.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// CloseAndLogError closes closer and logs a failure instead of returning it.
// It is meant for deferred closes of read-only resources.
func CloseAndLogError(closer io.Closer, location string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		log.Debugf("failed to close %s: %v", location, err)
	}
}
