// Package settlement builds, watches and verifies the on-chain
// settlement of real-mode bets.
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

var ErrInvalidAddress = errors.New("invalid wallet address")

// Artifact is the short-lived settlement produced for one bet: a
// base64-serialized transaction carrying the wager leg (and the payout
// leg on a win), house co-signed, awaiting the user's signature. It is
// never persisted.
type Artifact struct {
	Transaction          string // base64 wire encoding
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// BlockhashClient fetches the freshness marker for new settlements.
type BlockhashClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// Builder constructs house co-signed settlement transactions. The
// house key is loaded once at startup; a missing keypair refuses the
// whole service, never a single request.
type Builder struct {
	client   BlockhashClient
	houseKey solana.PrivateKey
}

func NewBuilder(client BlockhashClient, houseKey solana.PrivateKey) *Builder {
	return &Builder{client: client, houseKey: houseKey}
}

// LoadHouseKey reads the house keypair from a solana-keygen JSON file.
func LoadHouseKey(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("house keypair path not configured")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load house keypair: %w", err)
	}
	return key, nil
}

// HouseAddress is the house wallet public key.
func (b *Builder) HouseAddress() solana.PublicKey { return b.houseKey.PublicKey() }

// Build produces the settlement artifact for one bet. The wager leg
// (user→house, stake) is always present; on a win the payout leg
// (house→user, 2× stake) rides in the same transaction, so neither leg
// can land without the other. The user pays fees and must co-sign
// before broadcast; the house pre-authorizes only its own leg here.
func (b *Builder) Build(ctx context.Context, userAddr string, stakeLamports int64, won bool) (*Artifact, error) {
	user, err := solana.PublicKeyFromBase58(userAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, userAddr)
	}

	recent, err := b.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("latest blockhash: %w", err)
	}

	tx, err := buildSettlementTx(user, b.houseKey.PublicKey(), uint64(stakeLamports), won, recent.Value.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("build settlement tx: %w", err)
	}

	// House signs its outgoing leg now; the user signature slot stays
	// empty until the wallet signs client-side.
	housePub := b.houseKey.PublicKey()
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(housePub) {
			return &b.houseKey
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("house partial sign: %w", err)
	}

	encoded, err := tx.ToBase64()
	if err != nil {
		return nil, fmt.Errorf("serialize settlement tx: %w", err)
	}

	return &Artifact{
		Transaction:          encoded,
		Blockhash:            recent.Value.Blockhash,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}

// buildSettlementTx assembles the ordered transfer legs into a single
// transaction with the user as fee payer.
func buildSettlementTx(user, house solana.PublicKey, stake uint64, won bool, blockhash solana.Hash) (*solana.Transaction, error) {
	instrs := []solana.Instruction{
		system.NewTransferInstruction(stake, user, house).Build(),
	}
	if won {
		instrs = append(instrs,
			system.NewTransferInstruction(uint64(coinflip.RealPayout(int64(stake))), house, user).Build(),
		)
	}

	return solana.NewTransaction(instrs, blockhash, solana.TransactionPayer(user))
}
