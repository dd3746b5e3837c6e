package notify

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/mymmrac/telego"
)

// maxTelegramText is the Bot API limit for a single message.
const maxTelegramText = 4096

// BotInterface is the part of the Telegram Bot API the relay uses.
type BotInterface interface {
	GetMe(ctx context.Context) (*telego.User, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type telegoAdapter struct {
	bot *telego.Bot
}

// NewBotAdapter wraps a telego.Bot as BotInterface.
func NewBotAdapter(bot *telego.Bot) BotInterface {
	return &telegoAdapter{bot: bot}
}

func (a *telegoAdapter) GetMe(ctx context.Context) (*telego.User, error) {
	return a.bot.GetMe(ctx)
}

func (a *telegoAdapter) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	return a.bot.SendMessage(ctx, params)
}

// NewTelegramBot creates a bot client from a token.
func NewTelegramBot(token string) (BotInterface, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewBotAdapter(bot), nil
}

// TelegramMailer relays messages to a single Telegram chat. The recipient
// address is kept in the text since the chat is fixed.
type TelegramMailer struct {
	bot    BotInterface
	chatID int64
	logger *logger.Logger
}

// NewTelegramMailer creates a relay to chatID.
func NewTelegramMailer(bot BotInterface, chatID int64, log *logger.Logger) *TelegramMailer {
	return &TelegramMailer{bot: bot, chatID: chatID, logger: log}
}

// Check verifies the token by calling getMe.
func (t *TelegramMailer) Check(ctx context.Context) error {
	me, err := t.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	t.logger.InfoCtx(ctx, "telegram relay ready", logger.Field{Key: "bot", Value: me.Username})
	return nil
}

// SendMail posts the message to the chat, truncated to the Telegram limit.
func (t *TelegramMailer) SendMail(ctx context.Context, to, subject, body string) bool {
	text := truncateText(fmt.Sprintf("%s\nTo: %s\n\n%s", subject, to, body), maxTelegramText)

	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: t.chatID},
		Text:   text,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		t.logger.ErrorCtx(ctx, "telegram relay failed", err, logger.Field{Key: "chat_id", Value: t.chatID})
		return false
	}
	return true
}

func truncateText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
