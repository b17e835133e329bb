package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

var globalLogger *slog.Logger

// Init initializes the global logger based on application settings.
// It should be called once during application startup. A nil writer means os.Stdout.
// When settings.LogFile is set every line is also appended to that file; the file
// stays open for the life of the process.
func Init(settings models.ApplicationSettings, w io.Writer) error {
	level, err := parseLevel(settings.LogLevel)
	if err != nil {
		return err
	}

	if w == nil {
		w = os.Stdout
	}
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file '%s': %w", settings.LogFile, err)
		}
		w = io.MultiWriter(w, f)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(settings.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format specified: %s", settings.LogFormat)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	globalLogger.Debug("Logger initialized", "level", level.String(), "format", settings.LogFormat)
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level specified: %s", name)
	}
}

// L returns the initialized global logger instance.
// Before Init it falls back to slog.Default so library code never panics.
func L() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
