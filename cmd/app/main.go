package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/openduel/internal/clock"
	"github.com/osse101/openduel/internal/config"
	"github.com/osse101/openduel/internal/database"
	"github.com/osse101/openduel/internal/database/postgres"
	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/gamehost"
	"github.com/osse101/openduel/internal/handler"
	"github.com/osse101/openduel/internal/liveness"
	"github.com/osse101/openduel/internal/metrics"
	"github.com/osse101/openduel/internal/pool"
	"github.com/osse101/openduel/internal/rematch"
	"github.com/osse101/openduel/internal/series"
	"github.com/osse101/openduel/internal/server"
	"github.com/osse101/openduel/internal/sse"
)

const (
	dbMaxConns      = 10
	dbMaxIdleTime   = 5 * time.Minute
	dbMaxLifetime   = 30 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	initLogger(cfg)
	handler.InitValidator()

	dbPool, err := database.NewPool(context.Background(), database.Config{
		ConnString:  cfg.GetDBConnString(),
		MaxConns:    dbMaxConns,
		MaxIdleTime: dbMaxIdleTime,
		MaxLifetime: dbMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := database.Migrate(dbPool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	poolRepo := postgres.NewPoolRepository(dbPool)
	seriesRepo := postgres.NewSeriesRepository(dbPool)

	bus := event.NewMemoryBus()
	clk := clock.NewRealClock()
	monitor := liveness.NewMonitor(clk, cfg.Duel.DisconnectAfter)
	poolService := pool.NewService(poolRepo, cfg.Duel)

	var starter series.GameStarter = gamehost.LogStarter{}
	if cfg.GameHostURL != "" {
		starter = gamehost.NewClient(cfg.GameHostURL, cfg.GameHostKey)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	manager := series.NewManager(cfg.Duel, clk, bus, monitor, poolService, seriesRepo, starter, rng)
	coordinator := rematch.NewCoordinator(manager, bus, monitor)

	hub := sse.NewHub()
	hub.Start()
	defer hub.Stop()
	sse.NewSubscriber(hub, bus).Subscribe()

	collector := metrics.NewEventMetricsCollector()
	if err := collector.Register(bus); err != nil {
		log.Fatalf("Failed to register metrics collector: %v", err)
	}

	srv := server.NewServer(
		cfg.Port,
		cfg.APIKey,
		cfg.TrustedProxies,
		dbPool,
		manager,
		coordinator,
		poolService,
		seriesRepo,
		monitor,
		hub,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		log.Fatalf("Server failed to start: %v", err)
	case <-ctx.Done():
	}

	slog.Default().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Default().Error("Shutdown failed", "error", err)
	}
}
