package deliveryservice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/metrics"
	"github.com/GlebRadaev/courierstats/internal/parser"
	"github.com/GlebRadaev/courierstats/internal/worker"
)

//go:generate mockgen -source=deliveryservice.go -destination=mock_deliveryservice.go -package=deliveryservice

type Ledger interface {
	Append(ctx context.Context, rec domain.DeliveryRecord) error
}

type Service struct {
	groupChatID int64
	loc         *time.Location
	ledger      Ledger
	pool        worker.PoolI
	now         func() time.Time
}

func New(cfg *config.Config, loc *time.Location, ledger Ledger, pool worker.PoolI) *Service {
	return &Service{
		groupChatID: cfg.GroupChatID,
		loc:         loc,
		ledger:      ledger,
		pool:        pool,
		now:         time.Now,
	}
}

// Build turns an inbound message into a ledger record. It reports false for
// messages from other chats and for text that is not a delivery report.
func (s *Service) Build(msg domain.InboundMessage) (domain.DeliveryRecord, bool) {
	if msg.ChatID != s.groupChatID {
		return domain.DeliveryRecord{}, false
	}
	metrics.MessagesTotal.Inc()

	d, ok := parser.Parse(msg.Text)
	if !ok {
		zap.L().Debug("message is not a delivery report", zap.String("messageID", msg.MessageID))
		return domain.DeliveryRecord{}, false
	}
	zap.L().Debug("parsed delivery report",
		zap.String("handle", d.Handle),
		zap.Int64("amount", d.Amount),
		zap.String("courierID", msg.UserID),
	)

	return domain.DeliveryRecord{
		Timestamp:     s.now().In(s.loc).Truncate(time.Second),
		CourierID:     msg.UserID,
		CourierHandle: domain.Handle(msg.UserHandle),
		Amount:        d.Amount,
		MessageRef:    msg.MessageID,
		Status:        domain.StatusDelivered,
	}, true
}

// Save appends rec to the ledger. A failed write is logged with the record
// and counted as dropped; it is never retried.
func (s *Service) Save(ctx context.Context, rec domain.DeliveryRecord) error {
	if err := s.ledger.Append(ctx, rec); err != nil {
		metrics.DeliveriesDroppedTotal.Inc()
		zap.L().Error("failed to persist delivery, record dropped",
			zap.Time("timestamp", rec.Timestamp),
			zap.String("courierID", rec.CourierID),
			zap.String("handle", rec.CourierHandle.String),
			zap.Int64("amount", rec.Amount),
			zap.String("messageRef", rec.MessageRef),
			zap.Error(err),
		)
		return err
	}
	metrics.DeliveriesRecordedTotal.Inc()
	zap.L().Info("delivery recorded",
		zap.String("courierID", rec.CourierID),
		zap.String("handle", rec.CourierHandle.String),
		zap.Int64("amount", rec.Amount),
	)
	return nil
}

// Ingest parses msg inline and hands the append to the worker pool. The
// returned bool tells whether msg was a delivery report.
func (s *Service) Ingest(ctx context.Context, msg domain.InboundMessage) (bool, error) {
	rec, ok := s.Build(msg)
	if !ok {
		return false, nil
	}

	taskCtx := context.WithoutCancel(ctx)
	err := s.pool.AddTask(ctx, func() error {
		_ = s.Save(taskCtx, rec)
		return nil
	})
	if err != nil {
		metrics.DeliveriesDroppedTotal.Inc()
		zap.L().Error("failed to schedule delivery append, record dropped",
			zap.String("courierID", rec.CourierID),
			zap.Int64("amount", rec.Amount),
			zap.Error(err),
		)
		return true, err
	}
	return true, nil
}
