package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Status is the watcher's verdict on a submitted transaction.
type Status string

const (
	// StatusPending: submitted, no terminal state observed yet.
	StatusPending Status = "PENDING"
	// StatusConfirmed: the network explicitly reported the transaction
	// confirmed or finalized.
	StatusConfirmed Status = "CONFIRMED"
	// StatusFailed: the transaction landed but errored on chain.
	StatusFailed Status = "FAILED"
	// StatusTimedOut: the watch gave up. Inconclusive, not a verdict —
	// the transaction may still confirm out-of-band and recording can
	// be retried safely.
	StatusTimedOut Status = "TIMED_OUT"
)

var ErrInvalidSignature = errors.New("invalid transaction signature")

// StatusClient is the slice of the Solana RPC surface the watcher
// needs. Tests inject fakes.
type StatusClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Watcher polls the network until a submitted transaction reaches a
// terminal state or the bound elapses. Cancelling the context abandons
// the watch; the chain remains the source of truth either way.
type Watcher struct {
	log      *zap.Logger
	client   StatusClient
	interval time.Duration
	timeout  time.Duration
}

func NewWatcher(log *zap.Logger, client StatusClient, interval, timeout time.Duration) *Watcher {
	return &Watcher{log: log, client: client, interval: interval, timeout: timeout}
}

// Wait blocks cooperatively (ticker polling, no busy wait) until the
// signature is confirmed, failed, the bound elapses (StatusTimedOut),
// or ctx is cancelled.
func (w *Watcher) Wait(ctx context.Context, signature string) (Status, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return StatusFailed, fmt.Errorf("%w: %q", ErrInvalidSignature, signature)
	}

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// First poll immediately; the transaction may already be terminal.
	if st, done := w.poll(ctx, sig); done {
		return st, nil
	}

	for {
		select {
		case <-ctx.Done():
			return StatusTimedOut, ctx.Err()
		case <-deadline.C:
			w.log.Warn("confirmation watch timed out", zap.String("signature", signature))
			return StatusTimedOut, nil
		case <-ticker.C:
			if st, done := w.poll(ctx, sig); done {
				return st, nil
			}
		}
	}
}

// poll asks for the signature status once. done=false keeps waiting:
// absence of an error is not confirmation.
func (w *Watcher) poll(ctx context.Context, sig solana.Signature) (Status, bool) {
	out, err := w.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		w.log.Warn("signature status poll", zap.Error(err))
		return StatusPending, false
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return StatusPending, false
	}

	st := out.Value[0]
	if st.Err != nil {
		return StatusFailed, true
	}
	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return StatusConfirmed, true
	default:
		return StatusPending, false
	}
}
