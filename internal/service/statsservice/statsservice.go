package statsservice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/leaderboard"
	"github.com/GlebRadaev/courierstats/internal/report"
)

//go:generate mockgen -source=statsservice.go -destination=mock_statsservice.go -package=statsservice

type Ledger interface {
	Scan(ctx context.Context, fn func(domain.DeliveryRecord) error) error
}

type Service struct {
	ledger    Ledger
	loc       *time.Location
	formatter report.Formatter
	now       func() time.Time
}

func New(cfg *config.Config, loc *time.Location, ledger Ledger) *Service {
	return &Service{
		ledger:    ledger,
		loc:       loc,
		formatter: report.Formatter{Unit: cfg.Unit},
		now:       time.Now,
	}
}

// Leaderboard scans the whole ledger and ranks the current week. It returns
// the week start along with the entries.
func (s *Service) Leaderboard(ctx context.Context) (time.Time, []domain.LeaderboardEntry, error) {
	tally := leaderboard.NewTally(s.now().In(s.loc))
	err := s.ledger.Scan(ctx, func(rec domain.DeliveryRecord) error {
		tally.Add(rec)
		return nil
	})
	if err != nil {
		zap.L().Error("failed to scan ledger", zap.Error(err))
		return time.Time{}, nil, fmt.Errorf("scan ledger: %w", err)
	}
	return tally.Start(), tally.Entries(), nil
}

func (s *Service) Report(ctx context.Context, mode report.Mode) (string, error) {
	_, entries, err := s.Leaderboard(ctx)
	if err != nil {
		return "", err
	}
	return s.formatter.Format(entries, mode), nil
}

func (s *Service) Format(entries []domain.LeaderboardEntry, mode report.Mode) string {
	return s.formatter.Format(entries, mode)
}
