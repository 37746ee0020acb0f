package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dnldd/scout/shared"
	"github.com/rs/zerolog"
)

// TelegramConfig represents the configuration for the telegram notifier.
type TelegramConfig struct {
	// Token is the telegram bot token.
	Token string
	// ChatID is the destination chat for alerts.
	ChatID int64
	// Logger represents the notifier logger.
	Logger *zerolog.Logger
}

// TelegramBot sends outbound alerts to a telegram chat.
type TelegramBot struct {
	cfg *TelegramConfig
	bot *tgbotapi.BotAPI
}

// Ensure the telegram bot implements the Notifier interface.
var _ shared.Notifier = (*TelegramBot)(nil)

// NewTelegramBot initializes a new telegram notifier.
func NewTelegramBot(cfg *TelegramConfig) (*TelegramBot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be an empty string")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &TelegramBot{
		cfg: cfg,
		bot: bot,
	}, nil
}

// Notify sends the provided message. Send failures are logged and never
// block the signal pipeline.
func (t *TelegramBot) Notify(message string) {
	msg := tgbotapi.NewMessage(t.cfg.ChatID, message)
	_, err := t.bot.Send(msg)
	if err != nil {
		t.cfg.Logger.Error().Msgf("sending telegram notification: %v", err)
	}
}
