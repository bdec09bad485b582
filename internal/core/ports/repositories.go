package ports

import (
	"context"
	"errors"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Sentinel errors returned by the ledger store. The mutation engine branches
// on these; adapters translate their storage-native failures into them.
var (
	// ErrVersionConflict means another writer advanced the wallet version
	// between the read and the compare-and-swap. Transient; the engine
	// retries it within a bounded budget.
	ErrVersionConflict = errors.New("wallet version conflict")

	// ErrDuplicateReference means a transaction with the same
	// (reference id, type) pair already exists.
	ErrDuplicateReference = errors.New("duplicate reference id for transaction type")

	// ErrOwnerTaken means the owner already has a wallet.
	ErrOwnerTaken = errors.New("owner already has a wallet")

	// ErrWalletNotFound means the wallet targeted by a balance write does
	// not exist. Terminal; the engine must not retry it.
	ErrWalletNotFound = errors.New("wallet not found")
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside an atomic unit of work; the CAS write
// and the transaction append of one mutation attempt commit together or not
// at all.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	// GetByID returns (nil, nil) when the wallet does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// CompareAndSwapBalance commits newBalance only if the stored version
	// still equals expectedVersion, advancing the version by exactly one and
	// returning the new version. Returns ErrVersionConflict otherwise,
	// leaving the wallet untouched.
	CompareAndSwapBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, expectedVersion int64, newBalance domain.Money) (int64, error)
}

// TransactionRepository defines persistence operations for the append-only
// transaction log. Entries are immutable once appended.
type TransactionRepository interface {
	// Append inserts a ledger entry, failing with ErrDuplicateReference when
	// the (reference id, type) pair is already present.
	Append(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// ListByWalletBetween returns the wallet's entries with created_at inside
	// [from, to], ordered by creation time. Serves the historical-balance
	// replay.
	ListByWalletBetween(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.Transaction, error)
}

// DBTransactor provides the atomic unit of work wrapping one mutation attempt.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
