// Package logging provides the leveled logger shared by the CLI and the
// build workers.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type Level int

// Log levels.
const (
	LogLevelError Level = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	Level  Level
	Format string
	Output io.Writer
}

// Logger wraps zerolog with the small leveled surface the rest of the
// codebase uses. All methods tolerate a nil receiver, so optional loggers
// need no guards at call sites.
type Logger struct {
	logger zerolog.Logger
	level  Level
}

func NewLogger(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Format != LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return &Logger{
		logger: zerolog.New(out).Level(zerologLevel(config.Level)).With().Timestamp().Logger(),
		level:  config.Level,
	}
}

// WithField returns a child logger that stamps every line with the field.
func (l *Logger) WithField(name string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		logger: l.logger.With().Str(name, fmt.Sprint(value)).Logger(),
		level:  l.level,
	}
}

func (l *Logger) Level() Level {
	if l == nil {
		return LogLevelError
	}
	return l.level
}

func (l *Logger) DebugEnabled() bool {
	return l != nil && l.level >= LogLevelDebug
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Error().Msgf(format, args...)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
