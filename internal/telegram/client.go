// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reaganking/cbb-preds/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a pipeline error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Pipeline error*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Pipeline recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendBoard sends the day's prediction board.
func (c *Client) SendBoard(date time.Time, rows []models.PredictionRow) error {
	return c.sendMarkdownV2(c.formatBoard(date, rows))
}

// formatBoard formats a prediction board into a Telegram MarkdownV2 message.
// Rows arrive sorted by home spread, so the strongest home favorites lead.
func (c *Client) formatBoard(date time.Time, rows []models.PredictionRow) string {
	dateStr := escapeMarkdownV2(date.Format(models.DateLayout))

	if len(rows) == 0 {
		return fmt.Sprintf("🏀 *Predictions %s*\n\nNo games on the board\\.", dateStr)
	}

	message := fmt.Sprintf("🏀 *Predictions %s* \\(%d games\\)\n\n", dateStr, len(rows))
	for i, r := range rows {
		home := r.HomeTeamCode
		if home == "" {
			home = r.HomeTeamName
		}
		away := r.AwayTeamCode
		if away == "" {
			away = r.AwayTeamName
		}

		matchup := escapeMarkdownV2(fmt.Sprintf("%s @ %s", away, home))
		spreadStr := escapeMarkdownV2(fmt.Sprintf("%+.1f", r.HomeSpread))
		probStr := escapeMarkdownV2(fmt.Sprintf("%.0f%%", r.ProbHomeWin*100))

		message += fmt.Sprintf("%d\\. *%s*\n", i+1, matchup)
		message += fmt.Sprintf("   📊 spread %s, home win %s", spreadStr, probStr)
		if r.HomeMoneyline != nil && r.AwayMoneyline != nil {
			mlStr := escapeMarkdownV2(fmt.Sprintf("%+.0f / %+.0f", *r.HomeMoneyline, *r.AwayMoneyline))
			message += fmt.Sprintf(", ML %s", mlStr)
		}
		message += "\n\n"
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
