// Package scheduler posts the weekly leaderboard on a cron schedule.
//
// Computing the report and sending it are split: the cron job pushes an
// OutboundMessage onto a channel and Dispatch drains that channel into a
// Sender. A fire missed while the process was down is not replayed.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/metrics"
	"github.com/GlebRadaev/courierstats/internal/report"
	"github.com/GlebRadaev/courierstats/pkg/logger"
)

type Reporter interface {
	Report(ctx context.Context, mode report.Mode) (string, error)
}

type Sender interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
}

type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	chatID   int64
	reporter Reporter
	out      chan<- domain.OutboundMessage
}

func New(cfg *config.Config, loc *time.Location, reporter Reporter, out chan<- domain.OutboundMessage) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cfg.ReportSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", cfg.ReportSchedule, err)
	}

	l := logger.CronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		chatID:   cfg.GroupChatID,
		reporter: reporter,
		out:      out,
	}, nil
}

// Start registers the weekly job and runs the cron loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.Fire(ctx) }))
	s.cron.Start()
	zap.L().Info("weekly report scheduled", zap.Time("next", s.Next(time.Now())))

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		zap.L().Info("report scheduler stopped")
	}()
}

// Next reports when the job fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.cron.Location()))
}

// Fire computes the report and queues it for delivery.
func (s *Scheduler) Fire(ctx context.Context) {
	text, err := s.reporter.Report(ctx, report.ModeReport)
	if err != nil {
		metrics.ReportsFailedTotal.Inc()
		zap.L().Error("failed to build weekly report", zap.Error(err))
		return
	}

	msg := domain.OutboundMessage{ChatID: s.chatID, Text: text, Markdown: true}
	select {
	case s.out <- msg:
	case <-ctx.Done():
		metrics.ReportsFailedTotal.Inc()
		zap.L().Error("weekly report discarded on shutdown", zap.Error(ctx.Err()))
	}
}

// Dispatch sends queued messages until ctx is done or in is closed. Send
// failures are logged and not retried.
func Dispatch(ctx context.Context, in <-chan domain.OutboundMessage, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			if err := sender.Send(ctx, msg); err != nil {
				metrics.ReportsFailedTotal.Inc()
				zap.L().Error("failed to send report", zap.Int64("chatID", msg.ChatID), zap.Error(err))
				continue
			}
			metrics.ReportsSentTotal.Inc()
			zap.L().Info("report sent", zap.Int64("chatID", msg.ChatID))
		}
	}
}
