// Package logging configures the logrus logger shared by all components.
package logging

import (
	"io"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

// New returns a root logger at the given level writing to out.
func New(level logrus.Level, out io.Writer) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	f.PrefixPadding = 16
	logger.SetFormatter(f)

	return logrus.NewEntry(logger)
}

// Component returns a child logger tagged with the component prefix.
func Component(log *logrus.Entry, name string) *logrus.Entry {
	return log.WithField("prefix", name)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
