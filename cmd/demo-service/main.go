package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	dcache "github.com/Nakshatra-thange/Coinflip/internal/demo-service/cache"
	dhttp "github.com/Nakshatra-thange/Coinflip/internal/demo-service/http"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/ledger"
	"github.com/Nakshatra-thange/Coinflip/internal/demo-service/producer"
	drepo "github.com/Nakshatra-thange/Coinflip/internal/demo-service/repo"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/cache"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/config"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/db"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/kafka"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/logger"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("demo-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Postgres holds the demo ledger: accounts and the append-only bet log.
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(context.Background(), pg); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	// Redis fronts balance reads; the ledger writes through on settle.
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Settled-bet events for downstream consumers.
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	engine := ledger.New(drepo.NewPostgres(pg), coinflip.NewFlipper(), nil)
	api := dhttp.NewServer(log, engine,
		dcache.New(rdb, 30*time.Second),
		producer.NewKafkaPublisher(settledWriter, cfg.TopicBetSettled),
	)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
