package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/race-pool-platform/internal/racing/bet5"
	"github.com/radieske/race-pool-platform/internal/racing/settlement"
	shttp "github.com/radieske/race-pool-platform/internal/settlement-service/http"
	"github.com/radieske/race-pool-platform/internal/settlement-service/producer"
	"github.com/radieske/race-pool-platform/internal/settlement-service/repo"
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

	// Postgres: páreos, apostas, carteiras e BET5 ficam no mesmo banco
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Kafka: avisos race_settled e bet5_settled
	racesW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceSettled)
	defer racesW.Close()
	bet5W := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBet5Settled)
	defer bet5W.Close()
	notifier := producer.NewKafkaNotifier(racesW, bet5W)

	settledTypes := metrics.Counter("settlement_types_settled_total", "modalidades apuradas")
	finalized := metrics.Counter("settlement_races_finalized_total", "páreos finalizados")
	credited := metrics.Counter("settlement_credited_amount_total", "valor creditado em pagamentos")
	bet5Tickets := metrics.Counter("bet5_tickets_total", "bilhetes BET5 vendidos")
	bet5Points := metrics.Counter("bet5_points_total", "pontos BET5 vendidos")
	bet5Paid := metrics.Counter("bet5_paid_amount_total", "valor pago em dividendos BET5")

	store := repo.NewPostgres(pg)

	engine := settlement.NewEngine(log, store, notifier, cfg.Rates)
	engine.OnComputed = func(n int) { settledTypes.Add(float64(n)) }
	engine.OnFinalized = finalized.Inc
	engine.OnCredited = func(amount int64) { credited.Add(float64(amount)) }

	b5 := bet5.NewEngine(log, store.Bet5(), notifier, cfg.Bet5UnitStake)
	b5.OnTicket = func(points int) {
		bet5Tickets.Inc()
		bet5Points.Add(float64(points))
	}
	b5.OnSettled = func(_ int, paid int64) { bet5Paid.Add(float64(paid)) }

	api := shttp.NewServer(log, engine, store, b5)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8084
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("settlement-service listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("deduction", cfg.Rates.Deduction.String()),
		zap.String("refund", cfg.Rates.Refund.String()),
		zap.Int64("bet5UnitStake", cfg.Bet5UnitStake))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api srv", zap.Error(err))
	}
	log.Info("settlement-service stopped")
}
