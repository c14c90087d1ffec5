package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger writing structured JSON to stdout.
// It ensures that the logger is initialized only once.
func Init() {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	})
}

// Get returns the initialized default logger.
// It calls Init() to ensure the logger is ready before returning it.
func Get() *zerolog.Logger {
	Init()
	return &defaultLogger
}

// SetLevel adjusts the global log level from a configuration string.
// Unknown values fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Info logs an informational message using the default logger.
func Info(msg string) {
	Get().Info().Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string) {
	Get().Warn().Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error) {
	Get().Error().Err(err).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string) {
	Get().Debug().Msg(msg)
}
