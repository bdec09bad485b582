package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(walletID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        domain.TransactionTypeWithdraw,
		Amount:      domain.MustMoney("30.00"),
		ReferenceID: "R1",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionColumns() []string {
	return []string{"id", "wallet_id", "transaction_type", "amount", "reference_id", "created_at"}
}

func TestTransactionRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.WalletID, txn.Type, txn.Amount.String(), txn.ReferenceID, txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Append(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Append_DuplicateReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.WalletID, txn.Type, txn.Amount.String(), txn.ReferenceID, txn.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Append(context.Background(), tx, txn)
	assert.ErrorIs(t, err, ports.ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByWalletBetween(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC()

	rows := pgxmock.NewRows(transactionColumns()).
		AddRow(uuid.New(), walletID, domain.TransactionTypeDeposit, "100.00", "R1", from.Add(10*time.Minute)).
		AddRow(uuid.New(), walletID, domain.TransactionTypeWithdraw, "30.00", "R2", from.Add(20*time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(walletID, from, to).
		WillReturnRows(rows)

	entries, err := repo.ListByWalletBetween(context.Background(), walletID, from, to)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.TransactionTypeDeposit, entries[0].Type)
	assert.Equal(t, "100.00", entries[0].Amount.String())
	assert.Equal(t, "R2", entries[1].ReferenceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByWalletBetween_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(walletID, from, to).
		WillReturnRows(pgxmock.NewRows(transactionColumns()))

	entries, err := repo.ListByWalletBetween(context.Background(), walletID, from, to)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
