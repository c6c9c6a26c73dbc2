package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"

	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
)

// MaxMessageLength is the Telegram limit for one text message.
const MaxMessageLength = 4096

type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// BotSender sends plain-text messages through a live bot.
type BotSender struct {
	B *bot.Bot
}

func (s BotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.B.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// ReportNotifier delivers every tick report to the admin chat.
type ReportNotifier struct {
	Sender MessageSender
	ChatID int64
}

func NewReportNotifier(sender MessageSender, chatID int64) *ReportNotifier {
	return &ReportNotifier{Sender: sender, ChatID: chatID}
}

func (n *ReportNotifier) Notify(ctx context.Context, rep *report.Report) error {
	if n.ChatID == 0 || rep == nil {
		return nil
	}
	return sendChunked(ctx, n.Sender, n.ChatID, rep.String())
}

func sendChunked(ctx context.Context, sender MessageSender, chatID int64, text string) error {
	for i, chunk := range SplitMessage(text, MaxMessageLength) {
		if err := sender.SendMessage(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("send chunk %d: %w", i+1, err)
		}
	}
	return nil
}

// SplitMessage breaks text into chunks of at most limit runes, preferring
// line boundaries. Empty text yields no chunks.
func SplitMessage(text string, limit int) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" || limit <= 0 {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
		}

		n := utf8.RuneCountInString(line)
		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+n > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curLen += sep + n
	}
	flush()
	return chunks
}
