package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/gitmaxer/gitmaxer-bot/pkg/engine"
	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
)

const (
	CommandRun   = "/run"
	CommandStats = "/stats"

	adminOnlyText = "This command is available only in the admin chat."
	helpText      = "Commands:\n" +
		"/run - run one tick now and show its report\n" +
		"/stats - show user, plan and commit totals"
)

type StatsSource interface {
	Stats(ctx context.Context, since time.Time) (db.Stats, error)
}

// Admin serves the operator commands. Only messages from ChatID are acted on.
type Admin struct {
	Runner engine.Runner
	Stats  StatsSource
	ChatID int64
	Now    func() time.Time
}

func NewAdmin(runner engine.Runner, stats StatsSource, chatID int64) *Admin {
	return &Admin{Runner: runner, Stats: stats, ChatID: chatID, Now: time.Now}
}

// Register wires the command handlers into b.
func (a *Admin) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, CommandRun, bot.MatchTypeExact, a.HandleRun)
	b.RegisterHandler(bot.HandlerTypeMessageText, CommandStats, bot.MatchTypeExact, a.HandleStats)
}

func (a *Admin) HandleRun(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := a.authorize(ctx, b, update, "HandleRun")
	if !ok {
		return
	}

	rep, err := engine.RunAndNotify(ctx, a.Runner)
	if err != nil {
		logger.Warn("tick triggered from chat failed", "chat_id", chatID, "error", err)
	}
	if rep == nil {
		return
	}
	if err := sendChunked(ctx, a.senderFor(b), chatID, rep.String()); err != nil {
		logger.Error("failed to send tick report", "chat_id", chatID, "error", err)
	}
}

func (a *Admin) HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := a.authorize(ctx, b, update, "HandleStats")
	if !ok {
		return
	}

	if a.Stats == nil {
		if err := a.senderFor(b).SendMessage(ctx, chatID, "Statistics are unavailable: no database configured."); err != nil {
			logger.Error("failed to send stats", "chat_id", chatID, "error", err)
		}
		return
	}

	now := a.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats, err := a.Stats.Stats(ctx, since)
	text := FormatStats(stats)
	if err != nil {
		logger.Error("failed to load stats", "error", err)
		text = "Failed to load statistics. Please try again later."
	}
	if err := a.senderFor(b).SendMessage(ctx, chatID, text); err != nil {
		logger.Error("failed to send stats", "chat_id", chatID, "error", err)
	}
}

// HandleDefault answers anything else in the admin chat with the command list.
func (a *Admin) HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID != a.ChatID || a.ChatID == 0 {
		return
	}
	if err := a.senderFor(b).SendMessage(ctx, a.ChatID, helpText); err != nil {
		logger.Error("failed to send help", "error", err)
	}
}

func FormatStats(s db.Stats) string {
	plans := make([]string, 0, len(s.UsersByPlan))
	for plan := range s.UsersByPlan {
		plans = append(plans, plan)
	}
	sort.Strings(plans)

	parts := make([]string, len(plans))
	for i, plan := range plans {
		parts[i] = fmt.Sprintf("%s=%d", plan, s.UsersByPlan[plan])
	}
	planLine := "none"
	if len(parts) > 0 {
		planLine = strings.Join(parts, ", ")
	}

	return fmt.Sprintf("Users: %d (paused %d)\nPlans: %s\nCommits today: %d\nActive projects: %d",
		s.TotalUsers, s.PausedUsers, planLine, s.CommitsSince, s.ActiveProjects)
}

func (a *Admin) authorize(ctx context.Context, b *bot.Bot, update *models.Update, handler string) (int64, bool) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update", "handler", handler)
		return 0, false
	}
	chatID := update.Message.Chat.ID
	if a.ChatID == 0 || chatID != a.ChatID {
		logger.Warn("admin command from foreign chat", "handler", handler, "chat_id", chatID)
		if err := a.senderFor(b).SendMessage(ctx, chatID, adminOnlyText); err != nil {
			logger.Error("failed to send refusal", "chat_id", chatID, "error", err)
		}
		return 0, false
	}
	return chatID, true
}

func (a *Admin) senderFor(b *bot.Bot) MessageSender {
	return BotSender{B: b}
}

func (a *Admin) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
