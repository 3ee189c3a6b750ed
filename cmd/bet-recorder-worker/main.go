package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
	grepo "github.com/Nakshatra-thange/Coinflip/internal/game-service/repo"
	"github.com/Nakshatra-thange/Coinflip/internal/game-service/settlement"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/config"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/db"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/kafka"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/logger"
	"github.com/Nakshatra-thange/Coinflip/internal/shared/metrics"
	ev "github.com/Nakshatra-thange/Coinflip/pkg/contracts/events"
)

// The worker drains bet_submitted: settlements whose confirmation the
// API could not observe in time. It re-watches each transaction with a
// longer bound, verifies the legs and records the bet. Recording is
// idempotent by signature, so running alongside client retries is safe.
func main() {
	cfg := config.Load()
	log, err := logger.New("bet-recorder-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.EnsureSchema(context.Background(), pg); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSubmitted, "bet-recorder")
	defer reader.Close()

	recordedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetRecorded)
	defer recordedWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSubmittedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSubmittedDLQ)
		defer dlqWriter.Close()
	}

	rpcClient := rpc.New(cfg.SolanaRPCURL)
	watcher := settlement.NewWatcher(log, rpcClient, cfg.ConfirmInterval, cfg.WorkerConfirmTimeout)

	// Verification needs the house address; derive it from the same
	// keypair the game service signs with.
	houseKey, err := settlement.LoadHouseKey(cfg.HouseKeypairPath)
	if err != nil {
		log.Fatal("house keypair", zap.Error(err))
	}
	verifier := settlement.NewVerifier(&settlement.RPCFetcher{Client: rpcClient}, houseKey.PublicKey())

	repo := grepo.NewPostgres(pg)

	// Metrics and healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(ctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("bet-recorder-worker started",
		zap.String("consume", cfg.TopicBetSubmitted),
		zap.String("publish", cfg.TopicBetRecorded),
	)

	ctx := context.Background()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var sub ev.BetSubmitted
		if jerr := json.Unmarshal(msg.Value, &sub); jerr != nil {
			log.Error("unmarshal bet_submitted", zap.Error(jerr))
			continue
		}

		if err := processOne(ctx, log, watcher, verifier, repo, recordedWriter, dlqWriter, &sub); err != nil {
			log.Error("process submission", zap.String("signature", sub.TxSignature), zap.Error(err))
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// confirmationWatcher waits for a submitted transaction to reach a
// terminal state.
type confirmationWatcher interface {
	Wait(ctx context.Context, signature string) (settlement.Status, error)
}

// settlementVerifier checks the confirmed transaction against the
// claimed bet.
type settlementVerifier interface {
	Verify(ctx context.Context, signature, wallet string, stakeLamports int64, won bool) error
}

// betRecorder persists confirmed bets exactly once per signature.
type betRecorder interface {
	Record(ctx context.Context, b *grepo.RealBet) (created bool, err error)
}

// Attempts at verify + record per submission. The consumer offset is
// committed by the time processOne runs, so giving up means the DLQ,
// not a redelivery.
const maxRecordAttempts = 3

// processOne runs watch → verify → record for one queued submission:
//  1. wait for a terminal transaction state
//  2. still inconclusive, failed on chain or mismatched → DLQ
//  3. record (idempotent by signature), retrying transient failures
//  4. publish bet_recorded for first-time records
func processOne(
	ctx context.Context,
	log *zap.Logger,
	watcher confirmationWatcher,
	verifier settlementVerifier,
	rec betRecorder,
	recordedWriter *kafkago.Writer,
	dlqWriter *kafkago.Writer,
	sub *ev.BetSubmitted,
) error {
	// A tails win or a heads loss contradicts itself; no amount of
	// watching makes it recordable.
	if !coinflip.ValidResult(sub.Result) || sub.Won != coinflip.ResultWins(sub.Result) {
		log.Error("contradictory submission",
			zap.String("signature", sub.TxSignature),
			zap.String("result", sub.Result),
			zap.Bool("won", sub.Won))
		return deadLetter(ctx, dlqWriter, sub)
	}

	status, err := watcher.Wait(ctx, sub.TxSignature)
	if err != nil {
		return err
	}

	switch status {
	case settlement.StatusConfirmed:
		// proceed
	case settlement.StatusFailed:
		log.Warn("submitted transaction failed on chain", zap.String("signature", sub.TxSignature))
		return deadLetter(ctx, dlqWriter, sub)
	default:
		// Still unconfirmed after the long bound. The transaction's
		// blockhash has expired by now, so it will never land; keep the
		// submission for audit instead of retrying forever.
		metrics.ConfirmationTimeouts.Inc()
		log.Warn("confirmation still inconclusive", zap.String("signature", sub.TxSignature))
		return deadLetter(ctx, dlqWriter, sub)
	}

	for attempt := 0; ; attempt++ {
		err := recordConfirmed(ctx, verifier, rec, recordedWriter, sub)
		if err == nil {
			return nil
		}
		if errors.Is(err, settlement.ErrSettlementMismatch) {
			metrics.SettlementMismatches.Inc()
			log.Error("settlement mismatch", zap.String("signature", sub.TxSignature), zap.Error(err))
			return deadLetter(ctx, dlqWriter, sub)
		}
		if attempt == maxRecordAttempts-1 {
			log.Error("record submission",
				zap.String("signature", sub.TxSignature),
				zap.Int("attempts", maxRecordAttempts),
				zap.Error(err))
			if derr := deadLetter(ctx, dlqWriter, sub); derr != nil {
				return derr
			}
			return err
		}
		log.Warn("record submission, retrying",
			zap.String("signature", sub.TxSignature),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(time.Duration(300*(attempt+1)) * time.Millisecond)
	}
}

// recordConfirmed verifies the confirmed transaction, records the bet
// and announces first-time records.
func recordConfirmed(
	ctx context.Context,
	verifier settlementVerifier,
	rec betRecorder,
	recordedWriter *kafkago.Writer,
	sub *ev.BetSubmitted,
) error {
	if err := verifier.Verify(ctx, sub.TxSignature, sub.WalletAddress, sub.StakeLamports, sub.Won); err != nil {
		return err
	}

	created, err := rec.Record(ctx, &grepo.RealBet{
		TxSignature:   sub.TxSignature,
		WalletAddress: sub.WalletAddress,
		StakeLamports: sub.StakeLamports,
		Result:        sub.Result,
		Won:           sub.Won,
	})
	if err != nil {
		return err
	}
	if !created {
		metrics.RealBetDuplicates.Inc()
		return nil
	}
	metrics.RealBetsRecorded.Inc()

	if recordedWriter == nil {
		return nil
	}
	evr := ev.BetRecorded{
		TxSignature:   sub.TxSignature,
		WalletAddress: sub.WalletAddress,
		StakeLamports: sub.StakeLamports,
		Result:        sub.Result,
		Won:           sub.Won,
		Ts:            time.Now(),
	}
	return kafka.WriteJSON(ctx, recordedWriter, sub.TxSignature, mustJSON(evr))
}

func deadLetter(ctx context.Context, dlqWriter *kafkago.Writer, sub *ev.BetSubmitted) error {
	if dlqWriter == nil {
		return nil
	}
	return kafka.WriteJSON(ctx, dlqWriter, sub.TxSignature, mustJSON(sub))
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
