package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the direction of a balance movement.
type TransactionType string

const (
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
)

// Transaction is an immutable ledger entry for one balance movement. Amount is
// the positive magnitude of the movement; the sign is implied by Type. The
// pair (ReferenceID, Type) is unique across the ledger, which lets the two
// legs of a transfer share one reference id while blocking resubmission of
// the same operation.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	Type        TransactionType `json:"transaction_type"`
	Amount      Money           `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewTransaction creates a ledger entry for a committed mutation.
func NewTransaction(walletID uuid.UUID, typ TransactionType, amount Money, referenceID string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        typ,
		Amount:      amount,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
	}
}

// SignedAmount returns the amount with the sign implied by the transaction
// type: positive for deposits, negative for withdrawals. Used when replaying
// the log to reconstruct a balance.
func (t *Transaction) SignedAmount() Money {
	if t.Type == TransactionTypeWithdraw {
		return ZeroMoney().Sub(t.Amount)
	}
	return t.Amount
}
