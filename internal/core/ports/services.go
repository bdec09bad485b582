package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// WalletService is the balance-mutation core plus the wallet read surface.
// Withdraw and Deposit execute the invariant-preserving state transition:
// validate, load, compare-and-swap the balance, append the ledger entry, all
// inside one atomic unit of work per attempt, with bounded retry on version
// conflicts.
type WalletService interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (domain.Money, error)
	// GetHistoricalBalance replays the transaction log over [from, to] and
	// returns the signed sum (deposits positive, withdrawals negative). With
	// from at or before wallet creation this is the balance as of to.
	GetHistoricalBalance(ctx context.Context, walletID uuid.UUID, from, to time.Time) (domain.Money, error)
	Withdraw(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string) error
	Deposit(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string) error
}

// TransferService composes a debit and a credit into one logical operation
// with a shared reference id, compensating the debit when the credit fails.
type TransferService interface {
	Transfer(ctx context.Context, sourceWalletID, targetWalletID uuid.UUID, amount domain.Money, referenceID string) error
}

// ReceiptCache is a fast duplicate-submission check in front of the store's
// composite uniqueness constraint. Best-effort: errors are logged and the
// caller falls through to the store, which remains the authority.
type ReceiptCache interface {
	// Seen reports whether a receipt exists for the key.
	Seen(ctx context.Context, key string) (bool, error)
	// Mark records a receipt for a committed mutation with a TTL.
	Mark(ctx context.Context, key string, ttl time.Duration) error
}
