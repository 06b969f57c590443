package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/domain"
)

// LogSender writes outbound messages to the log. It stands in for a chat
// transport when no bot token is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg domain.OutboundMessage) error {
	zap.L().Info("outbound message (no transport configured)",
		zap.Int64("chatID", msg.ChatID),
		zap.String("text", msg.Text),
	)
	return nil
}
