// Package logging builds the zerolog logger used across chlog and carries it
// through context.Context.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 30
)

// Config defines the configuration for logger creation.
type Config struct {
	// Writer overrides the destination, typically in tests.
	Writer io.Writer
	// File, when set and Writer is nil, sends logs to a rotating file.
	File string
	// Console receives human-readable logs otherwise. Defaults to os.Stderr.
	Console io.Writer
	Verbose bool
}

// New returns a context carrying a logger built from config.
// Without a Writer or File, logs go to Console in console format.
func New(ctx context.Context, config Config) context.Context {
	var writer io.Writer
	switch {
	case config.Writer != nil:
		writer = config.Writer
	case config.File != "":
		writer = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
	default:
		console := config.Console
		if console == nil {
			console = os.Stderr
		}
		writer = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05", NoColor: true}
	}

	level := zerolog.WarnLevel
	if config.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Logger().
		Level(level)

	return logger.WithContext(ctx)
}

// Get retrieves the logger from ctx, or a disabled logger if none is attached.
func Get(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
