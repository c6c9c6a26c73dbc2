package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureStoreLog(t *testing.T, level logger.LogLevel) *bytes.Buffer {
	t.Helper()
	originalLogger := logger.Logger
	t.Cleanup(func() {
		logger.Logger = originalLogger
		logger.SetLogLevel(logger.INFO)
	})

	var buf bytes.Buffer
	logger.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.SetLogLevel(level)
	return &buf
}

func trace(l gormlogger.Interface, query string, age time.Duration, err error) {
	l.Trace(context.Background(), time.Now().Add(-age), func() (string, int64) { return query, 1 }, err)
}

func TestStoreLoggerTrace(t *testing.T) {
	buf := captureStoreLog(t, logger.DEBUG)

	slow, err := newGormLogger("info", time.Nanosecond)
	if err != nil {
		t.Fatalf("failed to create gorm logger: %v", err)
	}
	trace(slow, "SELECT * FROM user_settings", time.Millisecond, nil)
	if !strings.Contains(buf.String(), "store query slow") {
		t.Fatalf("expected slow query warning, got: %s", buf.String())
	}

	buf.Reset()
	fast, _ := newGormLogger("info", time.Hour)
	trace(fast, "SELECT * FROM projects", time.Millisecond, nil)
	if !strings.Contains(buf.String(), "store query") || strings.Contains(buf.String(), "slow") {
		t.Fatalf("expected plain debug trace, got: %s", buf.String())
	}

	buf.Reset()
	trace(fast, "UPDATE user_settings", 0, errors.New("connection reset"))
	if !strings.Contains(buf.String(), "store query failed") || !strings.Contains(buf.String(), "connection reset") {
		t.Fatalf("expected error trace, got: %s", buf.String())
	}

	buf.Reset()
	trace(fast, "SELECT * FROM projects LIMIT 1", 0, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected record-not-found to be silent, got: %s", buf.String())
	}
}

func TestStoreLoggerHidesTraceBelowDebug(t *testing.T) {
	buf := captureStoreLog(t, logger.INFO)

	lg, _ := newGormLogger("info", time.Hour)
	trace(lg, "SELECT 1", 0, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected query trace to require DEBUG, got: %s", buf.String())
	}
}

func TestStoreLoggerRespectsGormLevel(t *testing.T) {
	buf := captureStoreLog(t, logger.DEBUG)

	lg, _ := newGormLogger("error", time.Nanosecond)
	trace(lg, "SELECT 1", time.Millisecond, nil)
	if buf.Len() != 0 {
		t.Fatalf("slow warning must be dropped at gorm level error, got: %s", buf.String())
	}

	trace(lg.LogMode(gormlogger.Silent), "SELECT 1", 0, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode must drop errors, got: %s", buf.String())
	}
}

func TestStoreLoggerRedactsTokens(t *testing.T) {
	buf := captureStoreLog(t, logger.DEBUG)

	lg, _ := newGormLogger("info", time.Hour)
	trace(lg, `INSERT INTO "user_settings" ("github_access_token") VALUES ('gho_AbC123secret')`, 0, nil)
	out := buf.String()
	if strings.Contains(out, "AbC123secret") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, "gho_[redacted]") {
		t.Fatalf("expected redaction marker, got: %s", out)
	}
}

func TestNewGormLoggerDefaults(t *testing.T) {
	lg, err := newGormLogger("", 0)
	if err != nil {
		t.Fatalf("unexpected error for default gorm logger: %v", err)
	}
	l := lg.(*storeLogger)
	if l.level != gormlogger.Warn || l.slow != DefaultSlowQuery {
		t.Fatalf("unexpected defaults: %+v", l)
	}

	lg, err = newGormLogger("nope", 0)
	if err == nil {
		t.Fatalf("expected error for invalid gorm level")
	}
	if lg.(*storeLogger).level != gormlogger.Warn {
		t.Fatalf("expected warn for invalid input")
	}
}
