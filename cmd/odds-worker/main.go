package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/bet-service/repo"
	"github.com/radieske/race-pool-platform/internal/odds-worker/consumer"
	"github.com/radieske/race-pool-platform/internal/odds-worker/pubsub"
	"github.com/radieske/race-pool-platform/internal/racing/odds"
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

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer Kafka (consumer group odds-worker)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetPlaced, "odds-worker")
	defer reader.Close()

	var dlq *kafka.Writer
	if cfg.TopicBetPlacedDLQ != "" {
		dlq = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlacedDLQ)
		defer dlq.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := metrics.Counter("odds_worker_messages_consumed_total", "mensagens consumidas")
	recomputed := metrics.Counter("odds_worker_recomputed_total", "recálculos de odds concluídos")
	broadcasts := metrics.Counter("odds_worker_broadcasts_total", "atualizações publicadas no pub/sub")
	errorsBy := metrics.CounterVec("odds_worker_errors_total", "erros por estágio", "stage")

	oddsSvc := odds.NewService(log, repo.NewPostgres(pg), cache.NewOddsCache(redisClient, cfg.OddsCacheTTL), cfg.Rates)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Odds:        oddsSvc,
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		Retries:     3,
		Backoff:     300 * time.Millisecond,
		OnConsumed:  consumed.Inc,
		OnRecompute: recomputed.Inc,
		OnBroadcast: broadcasts.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	if dlq != nil {
		proc.DLQ = dlq
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))
	defer metricsSrv.Close()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("odds-worker started", zap.String("topic", cfg.TopicBetPlaced))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("odds-worker stopped")
}
