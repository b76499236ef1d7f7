// Package logger builds the logrus logger shared by every potx component.
// The logger is constructed once at startup and passed down explicitly.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/potx/potx/internal/constants"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger with the specified configuration. When logFile is set
// the file is truncated and every record is written to it and to stdout.
// The returned closer releases the file.
func New(level, format, logFile string) (*logrus.Logger, io.Closer, error) {
	return newLogger(level, format, logFile, os.Stdout)
}

func newLogger(level, format, logFile string, console io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	// Set log level
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(lvl)

	// Set format. Colors stay off so the file and the console get the same bytes.
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: constants.LogJSONTimestampFormat,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: constants.LogTimestampFormat,
			DisableColors:   true,
		})
	}

	if logFile == "" {
		log.SetOutput(console)
		return log, nopCloser{}, nil
	}

	// Ensure directory exists
	dir := filepath.Dir(logFile)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.LogFilePermissions)
	if err != nil {
		return nil, nil, err
	}

	// Write to both file and console
	log.SetOutput(io.MultiWriter(console, file))
	return log, file, nil
}
