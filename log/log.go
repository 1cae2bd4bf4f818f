// Package log provides the structured logger shared by the server
// daemon and client tooling.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the shared logger.
type Options struct {
	// Level is one of "trace", "debug", "info", "warn", "error", "fatal".
	Level string

	// JSON selects the JSON formatter; otherwise a human-readable text formatter is used.
	JSON bool

	// FilePath, if non-empty, additionally writes log output to a
	// rotating file sink at this path.
	FilePath string

	// MaxSizeMB, MaxBackups, MaxAgeDays bound the rotating file sink;
	// zero values fall back to lumberjack's own defaults (100MB, no
	// backup limit, no age limit).
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a *logrus.Logger configured per opts. Output always goes
// to stderr; FilePath, if set, additionally fans output out to a
// size/age-rotated file.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := io.Writer(os.Stderr)
	if opts.FilePath != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}
	logger.SetOutput(out)

	return logger, nil
}

// ForSession returns a logger scoped to one association, carrying the
// calling/called AE titles on every subsequent entry.
func ForSession(logger *logrus.Logger, callingAE, calledAE string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"calling_ae": callingAE,
		"called_ae":  calledAE,
	})
}

// ForExchange returns a logger scoped to one DIMSE exchange within a
// session, adding the message ID and command field to the session's fields.
func ForExchange(session *logrus.Entry, messageID uint32, command string) *logrus.Entry {
	return session.WithFields(logrus.Fields{
		"message_id": messageID,
		"command":    command,
	})
}
