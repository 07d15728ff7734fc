package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/irepack/irepack/internal/env"
	"github.com/irepack/irepack/internal/envvar"
)

// Options controls logger construction.
type Options struct {
	logToFile bool
	logFile   string
	level     slog.Leveler
}

// Option configures the logger.
type Option func(*Options)

// WithLogToFile enables mirroring log output to a rotating file.
func WithLogToFile(enabled bool) Option {
	return func(o *Options) {
		o.logToFile = enabled
	}
}

// WithLogFile sets the log file path. IREPACK_LOG_FILE takes precedence.
func WithLogFile(path string) Option {
	return func(o *Options) {
		o.logFile = path
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Leveler) Option {
	return func(o *Options) {
		o.level = level
	}
}

// New builds a slog.Logger for the given environment. Development uses a
// colored console handler, production uses JSON. When file logging is
// enabled, output also goes to a size-rotated file.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	options := &Options{
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(options)
	}

	out := io.Writer(os.Stderr)
	if options.logToFile {
		path := options.logFile
		if p := os.Getenv(envvar.IrepackLogFile); p != "" {
			path = p
		}
		if path != "" {
			out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   path,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
	}

	var handler slog.Handler
	switch environment {
	case env.Production:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: options.level})
	default:
		handler = tint.NewHandler(out, &tint.Options{
			Level:      options.level,
			TimeFormat: time.Kitchen,
		})
	}

	return slog.New(handler)
}
