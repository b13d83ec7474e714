// Package bot exposes the agent through Telegram. It replies to free-text
// scheduling requests and can push a daily agenda briefing.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"calagent/internal/agent"
	"calagent/internal/format"
)

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Bot runs the Telegram front end. Updates are processed sequentially; each
// message is one request/response exchange with the agent.
type Bot struct {
	api    *tgbotapi.BotAPI
	agent  *agent.Agent
	logger *slog.Logger
	// chatID restricts the bot to one chat and is the briefing target.
	// Zero means answer any chat and send no briefings.
	chatID int64
	cron   *cron.Cron
	loc    *time.Location
}

// New creates a Bot for the given token.
func New(token string, ag *agent.Agent, logger *slog.Logger, chatID int64, loc *time.Location) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("Authorized on Telegram.", "account", api.Self.UserName)

	return &Bot{
		api:    api,
		agent:  ag,
		logger: logger,
		chatID: chatID,
		cron:   cron.New(cron.WithLocation(loc)),
		loc:    loc,
	}, nil
}

// ScheduleBriefing sets up a daily agenda message at the given local time
// (HH:MM). It requires a configured chat ID.
func (b *Bot) ScheduleBriefing(timeStr string) error {
	if b.chatID == 0 {
		return fmt.Errorf("briefing requires TELEGRAM_CHAT_ID to be set")
	}
	m := timeRegex.FindStringSubmatch(timeStr)
	if m == nil {
		return fmt.Errorf("invalid briefing time %q, expected HH:MM", timeStr)
	}

	spec := fmt.Sprintf("%s %s * * *", m[2], m[1])
	if _, err := b.cron.AddFunc(spec, b.sendBriefing); err != nil {
		return fmt.Errorf("failed to add briefing job: %w", err)
	}
	b.logger.Info("Daily briefing scheduled.", "time", timeStr)
	return nil
}

func (b *Bot) sendBriefing() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := time.Now().In(b.loc)
	res := b.agent.ViewDay(ctx, today)
	b.reply(b.chatID, format.Agenda(today, res))
}

// Run starts the cron jobs and the long-polling loop, blocking until the
// context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.cron.Start()
	defer b.cron.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	if b.chatID != 0 && chatID != b.chatID {
		b.logger.Warn("Ignoring message from unknown chat", "chatID", chatID)
		return
	}

	text := update.Message.Text
	switch text {
	case "/start":
		b.reply(chatID, "Hi! I'm your calendar assistant. Tell me what you need, "+
			"for example: 'schedule a meeting with Alex tomorrow at 2pm' or 'am I free on Friday?'.")
		return
	case "/prefs":
		b.reply(chatID, format.Preferences(b.agent.Preferences()))
		return
	}

	res := b.agent.Handle(ctx, text)
	b.reply(chatID, format.Result(res))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send telegram message", "chatID", chatID, "error", err)
	}
}
