package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The owner_id column carries a unique
// constraint; a second wallet for the same owner fails with ErrOwnerTaken.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Balance.String(), w.Version, w.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrOwnerTaken
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID. Returns (nil, nil) when absent.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, balance::text, version, created_at
		FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwnerID fetches a wallet by its owner. Returns (nil, nil) when absent.
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, balance::text, version, created_at
		FROM wallets WHERE owner_id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, ownerID))
}

// CompareAndSwapBalance writes newBalance only if the stored version still
// equals expectedVersion, advancing the version by exactly one. A row the
// predicate does not match means another writer got there first.
func (r *WalletRepo) CompareAndSwapBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, expectedVersion int64, newBalance domain.Money) (int64, error) {
	query := `UPDATE wallets SET balance = $1, version = version + 1
		WHERE id = $2 AND version = $3`

	tag, err := tx.Exec(ctx, query, newBalance.String(), walletID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ports.ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance string

	err := row.Scan(&w.ID, &w.OwnerID, &balance, &w.Version, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}

	w.Balance, err = domain.NewMoney(balance)
	if err != nil {
		return nil, fmt.Errorf("parse wallet balance: %w", err)
	}
	return w, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
