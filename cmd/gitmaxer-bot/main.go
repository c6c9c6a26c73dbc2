// cmd/gitmaxer-bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	telegram "github.com/go-telegram/bot"

	"github.com/gitmaxer/gitmaxer-bot/pkg/bot"
	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/content"
	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/gitmaxer/gitmaxer-bot/pkg/engine"
	"github.com/gitmaxer/gitmaxer-bot/pkg/hosting"
	"github.com/gitmaxer/gitmaxer-bot/pkg/lock"
	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/gitmaxer/gitmaxer-bot/pkg/server"
)

const (
	serviceName     = "gitmaxer-bot"
	shutdownTimeout = 10 * time.Second
)

func configPath() string {
	if path := os.Getenv("GITMAXER_CONFIG"); path != "" {
		return path
	}
	return "config.json"
}

func main() {
	if err := config.LoadConfig(configPath()); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
		Attrs:  []any{"service", serviceName},
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dispatcher, store := buildDispatcher(cfg)

	var notifiers []engine.Notifier
	var tg *telegram.Bot
	if cfg.Telegram.Token != "" {
		var stats bot.StatsSource
		if store != nil {
			stats = store
		}
		admin := bot.NewAdmin(dispatcher, stats, cfg.Telegram.AdminChatID)
		b, err := telegram.New(cfg.Telegram.Token, telegram.WithDefaultHandler(admin.HandleDefault))
		if err != nil {
			logger.Error("failed to create telegram bot", "error", err)
		} else {
			admin.Register(b)
			tg = b
			notifiers = append(notifiers, bot.NewReportNotifier(bot.BotSender{B: b}, cfg.Telegram.AdminChatID))
		}
	}

	if tg != nil {
		go tg.Start(ctx)
	}
	if cfg.Schedule.IntervalMinutes > 0 {
		go engine.StartPeriodicTicks(ctx, dispatcher, time.Duration(cfg.Schedule.IntervalMinutes)*time.Minute, notifiers...)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(cfg.Server, dispatcher, notifiers...),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down http server", "error", err)
		}
	}()

	logger.Info("Starting server...", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// buildDispatcher wires the collaborators. A collaborator that cannot be built
// leaves the dispatcher in a configuration fault that every tick reports.
func buildDispatcher(cfg config.Config) (*engine.Dispatcher, *db.Store) {
	var faults []error
	if err := cfg.Validate(); err != nil {
		faults = append(faults, err)
	}

	var store *db.Store
	var records engine.Store
	if err := db.InitDB(cfg.Database); err != nil {
		faults = append(faults, err)
	} else {
		store = db.NewStore(db.DB)
		records = store
	}

	var provider hosting.Provider
	if p, err := hosting.NewGitHubProvider(cfg.GitHub.APIBaseURL); err != nil {
		faults = append(faults, err)
	} else {
		provider = p
	}

	var generator content.Generator
	if g, err := content.NewOpenAIGenerator(cfg.Generator); err != nil {
		faults = append(faults, err)
	} else {
		generator = g
	}

	d, err := engine.NewDispatcher(cfg, records, provider, generator)
	if err != nil {
		faults = append(faults, err)
		d = &engine.Dispatcher{Store: records, Hosting: provider, Generator: generator}
	}
	d.ConfigErr = errors.Join(faults...)
	if d.ConfigErr != nil {
		logger.Error("configuration incomplete, ticks will fail", "error", d.ConfigErr)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.Locker = lock.NewRedisLocker(rdb, lock.DefaultKey, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
	}
	return d, store
}
