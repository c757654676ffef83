package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stock-scheduler/internal/clock"
	"github.com/iliyamo/stock-scheduler/internal/config"
	"github.com/iliyamo/stock-scheduler/internal/database"
	"github.com/iliyamo/stock-scheduler/internal/handler"
	"github.com/iliyamo/stock-scheduler/internal/middleware"
	"github.com/iliyamo/stock-scheduler/internal/queue"
	"github.com/iliyamo/stock-scheduler/internal/repository"
	"github.com/iliyamo/stock-scheduler/internal/router"
	"github.com/iliyamo/stock-scheduler/internal/service"
	"github.com/iliyamo/stock-scheduler/internal/stockdate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var defaults []stockdate.DefaultsOption
	if cfg.CollectiveDefaultPlaces > 0 {
		defaults = append(defaults, stockdate.WithDefaultNumberOfPlaces(uint32(cfg.CollectiveDefaultPlaces)))
	}
	if cfg.CollectiveDefaultPriceDetail != "" {
		defaults = append(defaults, stockdate.WithDefaultPriceDetail(cfg.CollectiveDefaultPriceDetail))
	}
	svc := service.NewStockService(
		repository.NewStockRepo(db),
		service.NewAMQPPublisher(cfg.RabbitURL),
		service.WithClock(clock.NewSystem()),
		service.WithFormDefaults(stockdate.NewCollectiveStockFormDefaults(defaults...)),
	)

	// Redis is optional: nil disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	router.RegisterRoutes(e, cache)
	router.RegisterStocks(e, handler.NewStockHandler(svc), cfg.JWTSecret, cache, limit)

	go func() {
		if err := queue.StartStockConsumer(ctx, cfg.RabbitURL, cfg.StockLogDir); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("stock-consumer: stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- e.Start(addr)
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
