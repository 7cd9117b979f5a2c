// Package logger builds the process logger: a colored console handler in
// development, JSON in production, and optionally a rotating log file.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/synadapt/internal/env"
)

const DefaultLogFile = "logs/synadapt.log"

type options struct {
	level     slog.Leveler
	logToFile bool
	logFile   string
	writer    io.Writer
}

// Option configures New.
type Option func(*options)

// WithLevel sets the minimum level. The default depends on the environment.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithLogToFile also writes JSON records to a rotating log file.
func WithLogToFile(enabled bool) Option {
	return func(o *options) {
		o.logToFile = enabled
	}
}

// WithLogFile sets the path of the log file.
func WithLogFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.logFile = path
		}
	}
}

// WithWriter replaces stderr as the console destination.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// New builds a logger for environment e.
func New(e env.Environment, opts ...Option) *slog.Logger {
	o := options{
		level:   slog.LevelDebug,
		logFile: DefaultLogFile,
		writer:  os.Stderr,
	}
	if e.IsProduction() {
		o.level = slog.LevelInfo
	}
	for _, opt := range opts {
		opt(&o)
	}

	var console slog.Handler
	if e.IsProduction() {
		console = slog.NewJSONHandler(o.writer, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.writer, &tint.Options{
			Level:      o.level,
			TimeFormat: time.TimeOnly,
			NoColor:    color.NoColor,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	file := &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return slog.New(NewMultiHandler(console, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: o.level})))
}

// ErrUnknownLevel is returned by ParseLevel for unrecognized names.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Wrapf(ErrUnknownLevel, "%q", s)
	}
}
