// Package logging assembles the zerolog loggers used across the
// application: an optional console writer for interactive runs plus a
// lumberjack-rotated file so scheduled scans leave an audit trail.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls where log output goes and how the file rotates.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes per rotated file
	MaxBackups int
	MaxAge     int // days
}

// NewLoggerWithConfig builds a logger over the configured writers. With
// every output disabled it falls back to stdout rather than silently
// discarding events.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, consoleWriter())
	}
	if cfg.File {
		if w := fileWriter(cfg); w != nil {
			writers = append(writers, w)
		}
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = os.Stdout
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	return zerolog.New(out).With().Timestamp().Caller().Logger()
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         os.Stdout,
		TimeFormat:  time.RFC3339,
		FormatLevel: formatLevel,
	}
}

func formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return "???"
	}
	switch ll {
	case "debug":
		return "\033[36mDBG\033[0m"
	case "info":
		return "\033[32mINF\033[0m"
	case "warn":
		return "\033[33mWRN\033[0m"
	case "error":
		return "\033[31mERR\033[0m"
	default:
		return ll
	}
}

// fileWriter returns nil when the log directory cannot be created;
// logging then falls back to the remaining writers.
func fileWriter(cfg LogConfig) io.Writer {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel raises the global log level for --debug runs.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithTracker returns a child logger tagged with the tracker name.
func WithTracker(logger zerolog.Logger, tracker string) zerolog.Logger {
	return logger.With().Str("tracker", tracker).Logger()
}

// LogScan records the outcome of one tracker batch.
func LogScan(logger zerolog.Logger, tracker string, requested, fetched, skipped, alerts int, duration time.Duration) {
	logger.Info().
		Str("event", "scan").
		Str("tracker", tracker).
		Int("requested", requested).
		Int("fetched", fetched).
		Int("skipped", skipped).
		Int("alerts", alerts).
		Dur("duration", duration).
		Msg("Scan completed")
}

// LogAPICall records one provider request at debug level.
func LogAPICall(logger zerolog.Logger, method, endpoint string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("API call failed")
	} else {
		event.Msg("API call completed")
	}
}
