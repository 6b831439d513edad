package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	bhttp "github.com/radieske/race-pool-platform/internal/bet-service/http"
	kpub "github.com/radieske/race-pool-platform/internal/bet-service/producer"
	"github.com/radieske/race-pool-platform/internal/bet-service/repo"
	"github.com/radieske/race-pool-platform/internal/racing/odds"
	"github.com/radieske/race-pool-platform/internal/racing/wager"
	"github.com/radieske/race-pool-platform/internal/shared/cache"
	"github.com/radieske/race-pool-platform/internal/shared/config"
	"github.com/radieske/race-pool-platform/internal/shared/db"
	"github.com/radieske/race-pool-platform/internal/shared/kafka"
	"github.com/radieske/race-pool-platform/internal/shared/logger"
	"github.com/radieske/race-pool-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Redis: cache das odds provisórias
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	placed := metrics.Counter("bets_placed_total", "apostas individuais gravadas")
	purchases := metrics.Counter("bet_purchases_total", "compras confirmadas")
	oddsHits := metrics.Counter("bet_odds_cache_hits_total", "leituras de odds servidas pelo cache")
	oddsComputed := metrics.Counter("bet_odds_recomputed_total", "odds recalculadas sob demanda")

	// deps
	repository := repo.NewPostgres(pg)
	wagers := wager.NewService(log, repository, kpub.NewKafkaPublisher(writer))
	wagers.MaxPoints = cfg.MaxPoints
	wagers.OnPlaced = func(points int) {
		purchases.Inc()
		placed.Add(float64(points))
	}
	oddsSvc := odds.NewService(log, repository, cache.NewOddsCache(rdb, cfg.OddsCacheTTL), cfg.Rates)
	oddsSvc.OnCacheHit = oddsHits.Inc
	oddsSvc.OnRecomputed = oddsComputed.Inc

	// HTTP público
	api := bhttp.NewServer(log, wagers, oddsSvc, repository)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(
		pg.PingContext,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	))
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("bet-service stopped")
}
