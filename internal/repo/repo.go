package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/domain"
	fileledger "github.com/GlebRadaev/courierstats/internal/repo/file-ledger"
	pgledger "github.com/GlebRadaev/courierstats/internal/repo/pg-ledger"
)

type Ledger interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, rec domain.DeliveryRecord) error
	Scan(ctx context.Context, fn func(domain.DeliveryRecord) error) error
}

type Repositories struct {
	Ledger Ledger
}

// New selects the ledger backend named by cfg.LedgerDriver. pool is only
// used by the postgres driver and may be nil otherwise.
func New(cfg *config.Config, loc *time.Location, pool *pgxpool.Pool) (*Repositories, error) {
	var ledger Ledger
	switch cfg.LedgerDriver {
	case config.LedgerDriverFile:
		ledger = fileledger.New(cfg.LedgerPath, loc)
	case config.LedgerDriverPostgres:
		if pool == nil {
			return nil, fmt.Errorf("ledger driver %q needs a database pool", cfg.LedgerDriver)
		}
		ledger = pgledger.NewWithPool(pool, loc)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}

	return &Repositories{
		Ledger: ledger,
	}, nil
}
