package main

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	ghttp "github.com/Nakshatra-thange/Coinflip/internal/game-service/http"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/producer"
	grepo "github.com/Nakshatra-thange/Coinflip/internal/game-service/repo"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/settlement"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/config"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/db"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/kafka"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/logger"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("game-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// The house keypair is a hard startup requirement: without it no
	// settlement can be co-signed, so refuse to run rather than serve
	// a degraded flow.
	houseKey, err := settlement.LoadHouseKey(cfg.HouseKeypairPath)
	if err != nil {
		log.Fatal("house keypair", zap.Error(err))
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(context.Background(), pg); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	rpcClient := rpc.New(cfg.SolanaRPCURL)

	submittedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSubmitted)
	defer submittedWriter.Close()
	recordedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetRecorded)
	defer recordedWriter.Close()

	builder := settlement.NewBuilder(rpcClient, houseKey)
	watcher := settlement.NewWatcher(log, rpcClient, cfg.ConfirmInterval, cfg.ConfirmTimeout)
	verifier := settlement.NewVerifier(&settlement.RPCFetcher{Client: rpcClient}, builder.HouseAddress())

	api := ghttp.NewServer(log, coinflip.NewFlipper(),
		builder, watcher, verifier,
		grepo.NewPostgres(pg),
		producer.NewKafkaPublisher(submittedWriter, recordedWriter),
	)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("api listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("house", builder.HouseAddress().String()),
		zap.String("rpc", cfg.SolanaRPCURL),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
