package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/Nakshatra-thange/Coinflip/internal/coinflip"
)

// ErrSettlementMismatch means the confirmed transaction does not match
// the bet the caller claims it settles. Recording must be refused.
var ErrSettlementMismatch = errors.New("confirmed transaction does not match claimed bet")

// TxFetcher loads a confirmed transaction from the network. Tests
// inject transactions built locally.
type TxFetcher interface {
	FetchTransaction(ctx context.Context, sig solana.Signature) (*solana.Transaction, error)
}

// RPCFetcher implements TxFetcher against the Solana RPC API.
type RPCFetcher struct{ Client *rpc.Client }

func (f *RPCFetcher) FetchTransaction(ctx context.Context, sig solana.Signature) (*solana.Transaction, error) {
	out, err := f.Client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}

// transferLeg is one decoded System Program transfer.
type transferLeg struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

// Verifier checks a confirmed transaction against the bet it is
// claimed to settle before the bet is allowed into the record.
type Verifier struct {
	fetcher TxFetcher
	house   solana.PublicKey
}

func NewVerifier(fetcher TxFetcher, house solana.PublicKey) *Verifier {
	return &Verifier{fetcher: fetcher, house: house}
}

// Verify fetches the transaction and requires its legs to be exactly
// the settlement built for (wallet, stake, won): user→house stake
// first, then house→user 2× stake iff won, nothing else. Any
// divergence is ErrSettlementMismatch.
func (v *Verifier) Verify(ctx context.Context, signature, wallet string, stakeLamports int64, won bool) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, signature)
	}
	user, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, wallet)
	}

	tx, err := v.fetcher.FetchTransaction(ctx, sig)
	if err != nil {
		return err
	}

	legs, err := decodeTransferLegs(tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettlementMismatch, err)
	}

	want := 1
	if won {
		want = 2
	}
	if len(legs) != want {
		return fmt.Errorf("%w: %d transfer legs, want %d", ErrSettlementMismatch, len(legs), want)
	}

	wager := legs[0]
	if !wager.From.Equals(user) || !wager.To.Equals(v.house) || wager.Lamports != uint64(stakeLamports) {
		return fmt.Errorf("%w: wager leg %s→%s %d", ErrSettlementMismatch, wager.From, wager.To, wager.Lamports)
	}

	if won {
		payout := legs[1]
		if !payout.From.Equals(v.house) || !payout.To.Equals(user) ||
			payout.Lamports != uint64(coinflip.RealPayout(stakeLamports)) {
			return fmt.Errorf("%w: payout leg %s→%s %d", ErrSettlementMismatch, payout.From, payout.To, payout.Lamports)
		}
	}

	return nil
}

// decodeTransferLegs extracts the ordered System Program transfers.
// Any non-transfer instruction fails decoding: a settlement carries
// transfers only.
func decodeTransferLegs(tx *solana.Transaction) ([]transferLeg, error) {
	var legs []transferLeg
	for i := range tx.Message.Instructions {
		inst := tx.Message.Instructions[i]

		prog, err := tx.Message.Program(inst.ProgramIDIndex)
		if err != nil {
			return nil, err
		}
		if !prog.Equals(system.ProgramID) {
			return nil, fmt.Errorf("instruction %d: unexpected program %s", i, prog)
		}

		accounts, err := inst.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return nil, err
		}
		decoded, err := system.DecodeInstruction(accounts, inst.Data)
		if err != nil {
			return nil, err
		}
		transfer, ok := decoded.Impl.(*system.Transfer)
		if !ok {
			return nil, fmt.Errorf("instruction %d: not a transfer", i)
		}

		legs = append(legs, transferLeg{
			From:     transfer.GetFundingAccount().PublicKey,
			To:       transfer.GetRecipientAccount().PublicKey,
			Lamports: *transfer.Lamports,
		})
	}
	return legs, nil
}
