package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanosuguru/go-airline-reservation/internal/api"
	"github.com/sanosuguru/go-airline-reservation/internal/api/handler"
	"github.com/sanosuguru/go-airline-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/config"
	"github.com/sanosuguru/go-airline-reservation/internal/infrastructure/messaging"
	"github.com/sanosuguru/go-airline-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-airline-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-airline-reservation/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.App.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		log.Fatal("起動に失敗", zap.Error(err))
	}
	log.Info("サーバーが正常にシャットダウンしました")
}

func run(cfg *config.Config) error {
	m := metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB接続とマイグレーション
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("DB接続に失敗: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	// Redis接続
	rdb := redisinfra.NewClient(&cfg.Redis)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("Redis切断に失敗", zap.Error(err))
		}
	}()
	redisChecker := redisinfra.NewChecker(rdb)
	if err := redisChecker.PingContext(ctx); err != nil {
		return fmt.Errorf("Redis接続に失敗: %w", err)
	}

	// イベント発行（アウトボックス → Redis Streams）
	wmLogger := logger.NewWatermillAdapter(logger.Get())
	var publisher application.EventPublisher = messaging.NopPublisher{}
	var fwd *messaging.Forwarder
	if cfg.Messaging.OutboxEnabled {
		fwd, err = messaging.NewForwarder(db, rdb, cfg.Messaging.ForwarderTopic, wmLogger)
		if err != nil {
			return err
		}
		publisher = messaging.NewOutboxPublisher(cfg.Messaging.ForwarderTopic, wmLogger)
	}

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	flightRepo := postgres.NewFlightRepository(db)
	cartRepo := postgres.NewCartRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	executor := postgres.NewCheckoutExecutor(db)
	cache := redisinfra.NewAvailabilityCache(rdb)

	availabilityService := application.NewAvailabilityService(flightRepo, cache, cfg.Redis.AvailabilityTTL)
	cartService := application.NewCartService(txManager, flightRepo, cartRepo, cache)
	checkoutService := application.NewCheckoutService(txManager, cartRepo, reservationRepo, executor, publisher, cache)
	reservationService := application.NewReservationService(txManager, reservationRepo, flightRepo, publisher, cache)
	flightService := application.NewFlightService(txManager, flightRepo, reservationRepo, publisher, cache)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))
	handler.RegisterRoutes(e, handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db,
			"redis":    redisChecker,
		}),
		Cart:        handler.NewCartHandler(cartService),
		Checkout:    handler.NewCheckoutHandler(checkoutService),
		Reservation: handler.NewReservationHandler(reservationService),
		Admin:       handler.NewAdminHandler(reservationService, flightService),
		Flight:      handler.NewFlightHandler(availabilityService),
	})

	collector := worker.NewReservationStatsCollector(reservationService, m, cfg.App.StatsInterval)

	g, runCtx := errgroup.WithContext(ctx)

	if fwd != nil {
		g.Go(func() error {
			if err := fwd.Run(runCtx); err != nil {
				return fmt.Errorf("フォワーダー実行エラー: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		collector.Start(runCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()
		logger.Info("サーバーをシャットダウンしています...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
		}
		if fwd != nil {
			if err := fwd.Close(); err != nil {
				logger.Warn("フォワーダー停止に失敗", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}
