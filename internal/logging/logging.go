package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	FieldAccount = "account"
	FieldRun     = "run"
	FieldAttempt = "attempt"
	FieldTask    = "task"
)

const timestampFormat = "2006-01-02 15:04:05"

func New(w io.Writer, level string) (*logrus.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(parsed)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableQuote:    true,
	})

	return logger, nil
}

func ParseLevel(level string) (logrus.Level, error) {
	trimmed := strings.TrimSpace(level)
	if trimmed == "" {
		return logrus.InfoLevel, nil
	}

	parsed, err := logrus.ParseLevel(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse log level: %w", err)
	}

	return parsed, nil
}

func ForAccount(logger logrus.FieldLogger, name domain.AccountName) logrus.FieldLogger {
	return logger.WithField(FieldAccount, string(name))
}

// Discard is a logger for callers that do not care about output.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
