package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	Logger       *slog.Logger
	currentLevel LogLevel = INFO
)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// Options is the logging section of the config.
type Options struct {
	Level string
	// File, when set, receives a copy of every line.
	File string
	// Format is FormatText (default) or FormatJSON.
	Format string
	// Attrs are attached to every record, e.g. the service name.
	Attrs []any
}

// Configure installs a new Logger from opts. Invalid options are reported
// after the logger has been installed with the remaining valid settings.
func Configure(opts Options) error {
	var errs []error

	level := currentLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := ParseLogLevel(opts.Level)
		if err != nil {
			errs = append(errs, err)
		} else {
			level = parsed
		}
	}

	out, err := openOutput(opts.File)
	if err != nil {
		errs = append(errs, err)
	}

	handler, err := newHandler(opts.Format, out, level)
	if err != nil {
		errs = append(errs, err)
	}

	currentLevel = level
	Logger = slog.New(handler)
	if len(opts.Attrs) > 0 {
		Logger = Logger.With(opts.Attrs...)
	}
	return errors.Join(errs...)
}

// openOutput returns stdout, teed into path when one is given. On failure
// stdout alone is returned together with the error.
func openOutput(path string) (io.Writer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stdout, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, file), nil
}

func newHandler(format string, w io.Writer, level LogLevel) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return slog.NewTextHandler(w, opts), fmt.Errorf("invalid log format %q", format)
	}
}

func SetLogLevel(level LogLevel) {
	currentLevel = level
}

func Enabled(level LogLevel) bool {
	return currentLevel <= level
}

func ParseLogLevel(value string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level %q", value)
	}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) {
	if Enabled(DEBUG) {
		Logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if Enabled(INFO) {
		Logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Enabled(WARN) {
		Logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Enabled(ERROR) {
		Logger.Error(msg, args...)
	}
}
