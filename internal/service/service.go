package service

import (
	"time"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/repo"
	"github.com/GlebRadaev/courierstats/internal/service/deliveryservice"
	"github.com/GlebRadaev/courierstats/internal/service/statsservice"
	"github.com/GlebRadaev/courierstats/internal/worker"
)

type Services struct {
	DeliveryService *deliveryservice.Service
	StatsService    *statsservice.Service
}

func New(cfg *config.Config, loc *time.Location, repo *repo.Repositories, pool worker.PoolI) *Services {
	return &Services{
		DeliveryService: deliveryservice.New(cfg, loc, repo.Ledger, pool),
		StatsService:    statsservice.New(cfg, loc, repo.Ledger),
	}
}
