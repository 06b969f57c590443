package pgledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/metrics"
	"github.com/GlebRadaev/courierstats/internal/pg"
	"github.com/GlebRadaev/courierstats/migrations"
)

type Repository struct {
	db      pg.Database
	loc     *time.Location
	migrate func(ctx context.Context) error
	mu      sync.Mutex
}

func New(db pg.Database, loc *time.Location) *Repository {
	return &Repository{
		db:  db,
		loc: loc,
	}
}

// NewWithPool wires the goose migrations into Init.
func NewWithPool(pool *pgxpool.Pool, loc *time.Location) *Repository {
	r := New(pool, loc)
	r.migrate = func(ctx context.Context) error {
		return pg.RunMigrations(ctx, pool, migrations.Migrations)
	}
	return r
}

// Init applies pending migrations. goose records applied versions, so
// repeated calls are no-ops.
func (r *Repository) Init(ctx context.Context) error {
	if r.migrate == nil {
		return nil
	}
	if err := r.migrate(ctx); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

func (r *Repository) Append(ctx context.Context, rec domain.DeliveryRecord) error {
	query := `
		INSERT INTO deliveries (recorded_at, courier_id, courier_handle, amount, message_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var handle *string
	if rec.CourierHandle.Valid {
		handle = &rec.CourierHandle.String
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(ctx, query, rec.Timestamp, rec.CourierID, handle, rec.Amount, rec.MessageRef, string(rec.Status))
	if err != nil {
		zap.L().Error("failed to insert delivery", zap.Error(err))
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Scan streams every stored record to fn. Columns are read into NULL-aware
// pgtype values so a damaged row fails validation and is skipped. A failed
// row scan is skipped too, but pgx closes the result set after one, so that
// case is still reported once iteration stops.
func (r *Repository) Scan(ctx context.Context, fn func(domain.DeliveryRecord) error) error {
	query := `
		SELECT id, recorded_at, courier_id, courier_handle, amount, message_ref, status
		FROM deliveries
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("failed to query deliveries", zap.Error(err))
		return fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	for n := 1; rows.Next(); n++ {
		var row ledgerRow
		if err := rows.Scan(&row.id, &row.recordedAt, &row.courierID, &row.handle, &row.amount, &row.messageRef, &row.status); err != nil {
			skip(n, row.id, err)
			continue
		}

		rec, err := row.record(r.loc)
		if err != nil {
			skip(n, row.id, err)
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate deliveries: %w", err)
	}
	return nil
}

type ledgerRow struct {
	id         pgtype.Int8
	recordedAt pgtype.Timestamptz
	courierID  pgtype.Text
	handle     pgtype.Text
	amount     pgtype.Int8
	messageRef pgtype.Text
	status     pgtype.Text
}

func (row ledgerRow) record(loc *time.Location) (domain.DeliveryRecord, error) {
	switch {
	case !row.recordedAt.Valid || row.recordedAt.InfinityModifier != pgtype.Finite:
		return domain.DeliveryRecord{}, errors.New("missing or infinite timestamp")
	case !row.courierID.Valid || row.courierID.String == "":
		return domain.DeliveryRecord{}, errors.New("empty courier id")
	case !row.amount.Valid || row.amount.Int64 <= 0:
		return domain.DeliveryRecord{}, fmt.Errorf("amount %d is not positive", row.amount.Int64)
	case !domain.Status(row.status.String).Valid():
		return domain.DeliveryRecord{}, fmt.Errorf("unknown status %q", row.status.String)
	}

	return domain.DeliveryRecord{
		Timestamp:     row.recordedAt.Time.In(loc),
		CourierID:     row.courierID.String,
		CourierHandle: sql.NullString{String: row.handle.String, Valid: row.handle.Valid && row.handle.String != ""},
		Amount:        row.amount.Int64,
		MessageRef:    row.messageRef.String,
		Status:        domain.Status(row.status.String),
	}, nil
}

func skip(n int, id pgtype.Int8, err error) {
	metrics.MalformedRowsTotal.Inc()
	zap.L().Warn("skipping malformed ledger row",
		zap.Int("row", n),
		zap.Int64("id", id.Int64),
		zap.Error(err),
	)
}
