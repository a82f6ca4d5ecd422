package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
}

// Configure replaces the process logger. Console output is used in dev, JSON otherwise.
func Configure(environment, level string) {
	var out io.Writer = os.Stdout
	if environment == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	SetOutput(out)
	SetLevel(level)
}

// SetOutput redirects the logger, keeping timestamps
func SetOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger().Level(logger.GetLevel())
}

// SetLevel accepts zerolog level names; unknown names fall back to info
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	logger = logger.Level(parsed)
}

// Logger exposes the underlying logger for structured call sites (request logging)
func Logger() *zerolog.Logger {
	return &logger
}

func Info(format string, args ...any) {
	logger.Info().Msgf(format, args...)
}

func Debug(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	logger.Warn().Msgf(format, args...)
}

func Error(format string, args ...any) {
	logger.Error().Msgf(format, args...)
}
