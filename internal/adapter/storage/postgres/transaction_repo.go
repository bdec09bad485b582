package postgres

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository over an append-only
// transactions table. Rows are never updated or deleted; the composite
// unique constraint on (reference_id, transaction_type) is the idempotency
// authority, and (wallet_id, created_at) is indexed for range queries.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Append inserts a ledger entry within the mutation's unit of work.
func (r *TransactionRepo) Append(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, transaction_type, amount, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.Type, t.Amount.String(), t.ReferenceID, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateReference
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListByWalletBetween returns the wallet's entries inside [from, to] in
// creation order.
func (r *TransactionRepo) ListByWalletBetween(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, transaction_type, amount::text, reference_id, created_at
		FROM transactions
		WHERE wallet_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, walletID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &amount, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount, err = domain.NewMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("parse transaction amount: %w", err)
		}
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}
