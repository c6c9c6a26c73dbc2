package engine

import (
	"context"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
)

// Runner executes one tick. *Dispatcher is the production implementation.
type Runner interface {
	Run(ctx context.Context) (*report.Report, error)
}

// Notifier receives the report of every finished tick.
type Notifier interface {
	Notify(ctx context.Context, rep *report.Report) error
}

type tickerHandle struct {
	C    <-chan time.Time
	stop func()
}

var tickerFactory = func(d time.Duration) tickerHandle {
	t := time.NewTicker(d)
	return tickerHandle{C: t.C, stop: t.Stop}
}

// RunAndNotify executes one tick and hands the report to every notifier.
func RunAndNotify(ctx context.Context, r Runner, notifiers ...Notifier) (*report.Report, error) {
	rep, err := r.Run(ctx)
	if err != nil {
		logger.Error("tick failed", "error", err)
	}
	for _, n := range notifiers {
		if nerr := n.Notify(ctx, rep); nerr != nil {
			logger.Error("failed to deliver tick report", "error", nerr)
		}
	}
	return rep, err
}

// StartPeriodicTicks runs a tick immediately and then every interval until
// ctx is cancelled. It is the in-process alternative to an external cron.
func StartPeriodicTicks(ctx context.Context, r Runner, interval time.Duration, notifiers ...Notifier) {
	if interval <= 0 {
		logger.Warn("periodic ticks disabled", "interval", interval)
		return
	}
	ticker := tickerFactory(interval)
	defer ticker.stop()

	logger.Info("periodic ticks started", "interval", interval)
	RunAndNotify(ctx, r, notifiers...)
	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic ticks stopped")
			return
		case <-ticker.C:
			RunAndNotify(ctx, r, notifiers...)
		}
	}
}
