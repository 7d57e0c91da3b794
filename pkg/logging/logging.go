package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger builds a stderr-only logger, mainly for tests and CLIs.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// FileLogger builds the shared application logger. Output goes to stderr and,
// when logPath is non-empty, is duplicated into the given file.
func FileLogger(level logrus.Level, logPath string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if logPath == "" {
		return logger
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		logger.WithError(err).Warn("failed to create log directory, logging to stderr only")
		return logger
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.WithError(err).Warn("failed to open log file, logging to stderr only")
		return logger
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return logger
}
