package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a single user's balance. One wallet per owner; the balance is
// never negative after a committed mutation. Version advances by exactly one
// on every successful balance write and drives optimistic concurrency control.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Balance   Money     `json:"balance"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWallet creates a wallet for the given owner with a zero balance.
func NewWallet(ownerID uuid.UUID) *Wallet {
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   ZeroMoney(),
		Version:   0,
		CreatedAt: time.Now().UTC(),
	}
}
