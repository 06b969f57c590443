// Package telegram connects the delivery pipeline to a Telegram group.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/report"
)

const (
	statsCommand     = "stats"
	pollTimeout      = 60
	statsUnavailable = "Stats are temporarily unavailable, please try again later."
)

type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

type DeliveryService interface {
	Ingest(ctx context.Context, msg domain.InboundMessage) (bool, error)
}

type StatsService interface {
	Report(ctx context.Context, mode report.Mode) (string, error)
}

type Bot struct {
	api        BotAPI
	deliveries DeliveryService
	stats      StatsService
}

func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	zap.L().Info("authorized on telegram", zap.String("account", api.Self.UserName))
	return api, nil
}

func New(api BotAPI, deliveries DeliveryService, stats StatsService) *Bot {
	return &Bot{
		api:        api,
		deliveries: deliveries,
		stats:      stats,
	}
}

// Run long-polls updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)
	zap.L().Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			zap.L().Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		if msg.Command() == statsCommand {
			b.replyStats(ctx, msg)
		}
		return
	}
	if msg.Text == "" {
		return
	}

	in := domain.InboundMessage{
		ChatID:     msg.Chat.ID,
		MessageID:  strconv.Itoa(msg.MessageID),
		Text:       msg.Text,
		ReceivedAt: time.Unix(int64(msg.Date), 0),
	}
	if msg.From != nil {
		in.UserID = strconv.FormatInt(msg.From.ID, 10)
		in.UserHandle = msg.From.UserName
	}
	if _, err := b.deliveries.Ingest(ctx, in); err != nil {
		zap.L().Error("failed to ingest telegram message", zap.Int("messageID", msg.MessageID), zap.Error(err))
	}
}

func (b *Bot) replyStats(ctx context.Context, msg *tgbotapi.Message) {
	text, err := b.stats.Report(ctx, report.ModeQuery)
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	if err != nil {
		reply.Text = statsUnavailable
	} else {
		reply.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err := b.api.Send(reply); err != nil {
		zap.L().Error("failed to reply to stats command", zap.Int64("chatID", msg.Chat.ID), zap.Error(err))
	}
}

func (b *Bot) Send(_ context.Context, msg domain.OutboundMessage) error {
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.Markdown {
		out.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
