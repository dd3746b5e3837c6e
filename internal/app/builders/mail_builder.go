package builders

import (
	"context"
	"fmt"

	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/notify"
)

// BotFactory creates a Telegram bot client from a token.
type BotFactory func(token string) (notify.BotInterface, error)

type MailBuilder struct {
	config     *config.Config
	logger     *logger.Logger
	botFactory BotFactory
}

func NewMailBuilder(cfg *config.Config, log *logger.Logger) *MailBuilder {
	return &MailBuilder{
		config:     cfg,
		logger:     log,
		botFactory: notify.NewTelegramBot,
	}
}

// WithBotFactory replaces the Telegram client constructor (tests).
func (b *MailBuilder) WithBotFactory(f BotFactory) *MailBuilder {
	b.botFactory = f
	return b
}

// Build returns the transport for user notices and the one for admin notices.
// With mail disabled messages are only logged. An enabled Telegram relay is
// added to admin notices next to SMTP.
func (b *MailBuilder) Build(ctx context.Context) (user notify.Mailer, admin notify.Mailer, err error) {
	mail := b.config.Mail
	if mail.Enabled {
		user = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     mail.Host,
			Port:     mail.Port,
			Username: mail.Username,
			Password: mail.Password,
			From:     mail.From,
			Attempts: mail.Attempts,
		}, b.logger)
		b.logger.Info("smtp transport configured",
			logger.Field{Key: "host", Value: mail.Host},
			logger.Field{Key: "port", Value: mail.Port})
	} else {
		user = notify.NewLogMailer(b.logger)
		b.logger.Warn("mail delivery disabled, notices will only be logged")
	}
	admin = user

	tg := b.config.Notify.Telegram
	if !tg.Enabled {
		return user, admin, nil
	}

	bot, err := b.botFactory(tg.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	relay := notify.NewTelegramMailer(bot, tg.ChatID, b.logger)
	if err := relay.Check(ctx); err != nil {
		// не фатально: SMTP остаётся основным каналом
		b.logger.Error("telegram relay check failed", err)
	}

	admin = notify.NewFanoutMailer(user, relay)
	b.logger.Info("telegram relay enabled for admin notices",
		logger.Field{Key: "chat_id", Value: tg.ChatID})
	return user, admin, nil
}
