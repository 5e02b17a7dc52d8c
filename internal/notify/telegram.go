package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// TelegramNotifier delivers through the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	client *http.Client
	logger *zap.Logger
}

// NewTelegramNotifier creates a notifier for the bot identified by token.
// An empty apiURL selects DefaultAPIURL. No request is made until the first delivery.
func NewTelegramNotifier(token, apiURL string, logger *zap.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("bot token is required")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: 30 * time.Second}
	bot := &tgbotapi.BotAPI{Token: token, Client: client, Buffer: 100}
	bot.SetAPIEndpoint(strings.TrimSuffix(apiURL, "/") + "/bot%s/%s")
	return &TelegramNotifier{bot: bot, client: client, logger: logger}, nil
}

// DeliverText calls sendMessage.
func (n *TelegramNotifier) DeliverText(ctx context.Context, userID int64, text string) error {
	if _, err := n.withContext(ctx).Request(tgbotapi.NewMessage(userID, text)); err != nil {
		n.logger.Warn("sendMessage failed", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// DeliverFile calls sendDocument with data uploaded as filename.
func (n *TelegramNotifier) DeliverFile(ctx context.Context, userID int64, data []byte, filename, caption string) error {
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := n.withContext(ctx).Request(doc); err != nil {
		n.logger.Warn("sendDocument failed", zap.Int64("user_id", userID), zap.String("filename", filename), zap.Error(err))
		return fmt.Errorf("sendDocument: %w", err)
	}
	return nil
}

// withContext returns a copy of the bot whose requests are bound to ctx.
func (n *TelegramNotifier) withContext(ctx context.Context) *tgbotapi.BotAPI {
	bot := *n.bot
	bot.Client = contextClient{ctx: ctx, client: n.client}
	return &bot
}

// contextClient attaches ctx to every request it sends.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
