package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DefaultSlowQuery    = 500 * time.Millisecond
	defaultGormLogLevel = gormlogger.Warn
)

// GitHub token prefixes: gho_ (OAuth), ghp_ (PAT), ghu_/ghs_/ghr_ (app tokens).
var tokenPattern = regexp.MustCompile(`\b(gh[opusr])_[A-Za-z0-9_]+`)

func redactSQL(query string) string {
	return tokenPattern.ReplaceAllString(query, "${1}_[redacted]")
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// storeLogger writes gorm traces to the application logger so store faults
// show up next to the tick report lines. Access tokens never reach the log.
type storeLogger struct {
	slow  time.Duration
	level gormlogger.LogLevel
}

func newGormLogger(levelValue string, slow time.Duration) (gormlogger.Interface, error) {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	l := &storeLogger{slow: slow, level: defaultGormLogLevel}
	if v := strings.ToLower(strings.TrimSpace(levelValue)); v != "" {
		level, ok := gormLevels[v]
		if !ok {
			return l, fmt.Errorf("invalid gorm log level %q", levelValue)
		}
		l.level = level
	}
	return l, nil
}

func (l *storeLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *storeLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, gormlogger.Info, fmt.Sprintf(msg, data...))
}

func (l *storeLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, gormlogger.Warn, fmt.Sprintf(msg, data...))
}

func (l *storeLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, gormlogger.Error, fmt.Sprintf(msg, data...))
}

func (l *storeLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	query, rows := fc()
	args := []any{"elapsed", elapsed, "rows", rows, "sql", redactSQL(query)}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// a missing row is a normal answer for lookups
	case err != nil:
		l.log(ctx, gormlogger.Error, "store query failed", append(args, "error", err)...)
	case elapsed > l.slow:
		l.log(ctx, gormlogger.Warn, "store query slow", append(args, "threshold", l.slow)...)
	default:
		l.log(ctx, gormlogger.Info, "store query", args...)
	}
}

// log maps gorm's levels onto the application levels. gorm Info traces are
// only written at DEBUG.
func (l *storeLogger) log(ctx context.Context, level gormlogger.LogLevel, msg string, args ...any) {
	if l.level < level {
		return
	}
	var appLevel logger.LogLevel
	var slogLevel slog.Level
	switch level {
	case gormlogger.Error:
		appLevel, slogLevel = logger.ERROR, slog.LevelError
	case gormlogger.Warn:
		appLevel, slogLevel = logger.WARN, slog.LevelWarn
	case gormlogger.Info:
		appLevel, slogLevel = logger.DEBUG, slog.LevelDebug
	default:
		return
	}
	if logger.Enabled(appLevel) {
		logger.Logger.Log(ctx, slogLevel, msg, args...)
	}
}
