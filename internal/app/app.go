package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/courierstats/internal/config"
	"github.com/GlebRadaev/courierstats/internal/domain"
	"github.com/GlebRadaev/courierstats/internal/handlers"
	"github.com/GlebRadaev/courierstats/internal/metrics"
	"github.com/GlebRadaev/courierstats/internal/repo"
	"github.com/GlebRadaev/courierstats/internal/scheduler"
	"github.com/GlebRadaev/courierstats/internal/service"
	"github.com/GlebRadaev/courierstats/internal/transport"
	"github.com/GlebRadaev/courierstats/internal/transport/telegram"
	"github.com/GlebRadaev/courierstats/internal/worker"
	"github.com/GlebRadaev/courierstats/pkg/auth"
	"github.com/GlebRadaev/courierstats/pkg/logger"
)

const outboxSize = 8

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg    *config.Config
	loc    *time.Location
	api    *handlers.Handlers
	srv    *service.Services
	repo   *repo.Repositories
	pool   *worker.Pool
	db     *pgxpool.Pool
	bot    *telegram.Bot
	sender scheduler.Sender
	outbox chan domain.OutboundMessage

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("can't load config: %w", err)
	}

	err = logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	metrics.Register()

	loc, err := cfg.Location()
	if err != nil {
		zap.L().Error("unknown time zone: ", zap.String("timezone", cfg.Timezone), zap.Error(err))
		return fmt.Errorf("can't load time zone: %w", err)
	}

	if cfg.LedgerDriver == config.LedgerDriverPostgres {
		a.db, err = getPgxpool(ctx, cfg)
		if err != nil {
			zap.L().Error("build pgx pool failed: ", zap.Error(err))
			return fmt.Errorf("can't build pgx pool: %w", err)
		}
	}

	a.cfg = cfg
	a.loc = loc
	a.repo, err = repo.New(cfg, loc, a.db)
	if err != nil {
		return fmt.Errorf("can't build repositories: %w", err)
	}
	if err = a.repo.Ledger.Init(ctx); err != nil {
		zap.L().Error("ledger init failed: ", zap.Error(err))
		return fmt.Errorf("can't init ledger: %w", err)
	}

	a.pool = worker.NewPool(cfg.Workers)
	a.srv = service.New(cfg, loc, a.repo, a.pool)

	var validator auth.TokenValidator
	if cfg.APISecret != "" {
		validator = auth.NewJWTService(cfg.APISecret)
	}
	a.api = handlers.New(a.srv, validator)
	a.outbox = make(chan domain.OutboundMessage, outboxSize)

	if err = a.startTransport(ctx); err != nil {
		return fmt.Errorf("can't start transport: %w", err)
	}

	if err = a.startScheduler(ctx); err != nil {
		return fmt.Errorf("can't start scheduler: %w", err)
	}

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("ledger", cfg.LedgerDriver),
		zap.String("timezone", loc.String()),
	)
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startTransport(ctx context.Context) error {
	if a.cfg.BotToken == "" {
		zap.L().Warn("bot token is empty, reports are written to the log")
		a.sender = transport.LogSender{}
		return nil
	}

	api, err := telegram.Connect(a.cfg.BotToken)
	if err != nil {
		return err
	}
	a.bot = telegram.New(api, a.srv.DeliveryService, a.srv.StatsService)
	a.sender = a.bot

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.bot.Run(ctx)
	}()

	return nil
}

func (a *Application) startScheduler(ctx context.Context) error {
	sched, err := scheduler.New(a.cfg, a.loc, a.srv.StatsService, a.outbox)
	if err != nil {
		return err
	}
	sched.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		scheduler.Dispatch(ctx, a.outbox, a.sender)
	}()

	return nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// shutdown drains the ingest pool before the database goes away, so queued
// appends still reach the ledger.
func (a *Application) shutdown() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	a.shutdown()
	close(a.errCh)
	wg.Wait()

	return appErr
}
