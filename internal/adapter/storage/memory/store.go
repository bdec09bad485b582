// Package memory provides an in-process Ledger Store for tests and local
// runs. It enforces the same contract as the postgres adapter: versioned
// compare-and-swap balance writes, a composite uniqueness constraint on
// (reference id, transaction type), and per-attempt units of work. Writes
// made through a unit of work stay buffered inside it and become visible
// only when Commit applies them; Rollback discards them.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store implements ports.WalletRepository, ports.TransactionRepository and
// ports.DBTransactor over process memory. Safe for concurrent use; each
// individual operation is serialised by the store mutex.
type Store struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	entries map[uuid.UUID]*domain.Transaction
	refs    map[string]struct{} // (reference id, type) uniqueness index
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		entries: make(map[uuid.UUID]*domain.Transaction),
		refs:    make(map[string]struct{}),
	}
}

func refKey(referenceID string, typ domain.TransactionType) string {
	return referenceID + "|" + string(typ)
}

// Create inserts a wallet, enforcing one wallet per owner.
func (s *Store) Create(ctx context.Context, w *domain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.wallets {
		if existing.OwnerID == w.OwnerID {
			return ports.ErrOwnerTaken
		}
	}
	cp := *w
	s.wallets[w.ID] = &cp
	return nil
}

// GetByID returns a copy of the wallet, or (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// GetByOwnerID returns a copy of the owner's wallet, or (nil, nil).
func (s *Store) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

// CompareAndSwapBalance validates the versioned balance write against the
// committed state and buffers it in the unit of work. The version check runs
// again when Commit applies the write, so a writer that committed in between
// surfaces as ports.ErrVersionConflict at commit time.
func (s *Store) CompareAndSwapBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, expectedVersion int64, newBalance domain.Money) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok {
		return 0, ports.ErrWalletNotFound
	}
	if w.Version != expectedVersion {
		return 0, ports.ErrVersionConflict
	}

	if mt, ok := tx.(*memTx); ok {
		mt.balances = append(mt.balances, balanceWrite{
			walletID:        walletID,
			expectedVersion: expectedVersion,
			newBalance:      newBalance,
		})
	} else {
		// Outside a store transaction the write applies immediately.
		w.Balance = newBalance
		w.Version = expectedVersion + 1
	}
	return expectedVersion + 1, nil
}

// Append validates (reference id, type) uniqueness against the committed
// state plus the unit of work's own buffered entries, then buffers the entry.
func (s *Store) Append(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := refKey(t.ReferenceID, t.Type)
	if _, dup := s.refs[key]; dup {
		return ports.ErrDuplicateReference
	}

	mt, ok := tx.(*memTx)
	if !ok {
		cp := *t
		s.entries[t.ID] = &cp
		s.refs[key] = struct{}{}
		return nil
	}
	for _, staged := range mt.appends {
		if refKey(staged.ReferenceID, staged.Type) == key {
			return ports.ErrDuplicateReference
		}
	}
	mt.appends = append(mt.appends, *t)
	return nil
}

// ListByWalletBetween returns the wallet's committed entries inside
// [from, to] in creation order.
func (s *Store) ListByWalletBetween(ctx context.Context, walletID uuid.UUID, from, to time.Time) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Transaction
	for _, t := range s.entries {
		if t.WalletID != walletID {
			continue
		}
		if t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// Begin starts a unit of work. Like pgx.Tx, the returned transaction is not
// safe for concurrent use by multiple goroutines.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{store: s}, nil
}

type balanceWrite struct {
	walletID        uuid.UUID
	expectedVersion int64
	newBalance      domain.Money
}

// memTx implements pgx.Tx as a write buffer over the store. Nothing it
// stages is visible to other readers until Commit applies the buffer
// atomically under the store mutex.
type memTx struct {
	store    *Store
	balances []balanceWrite
	appends  []domain.Transaction
	done     bool
}

// Commit re-validates every buffered write against the committed state and
// applies the whole buffer, or applies nothing. A wallet whose version moved
// since the swap was staged fails the commit with ports.ErrVersionConflict.
func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bw := range t.balances {
		w, ok := s.wallets[bw.walletID]
		if !ok {
			return ports.ErrWalletNotFound
		}
		if w.Version != bw.expectedVersion {
			return ports.ErrVersionConflict
		}
	}
	for _, txn := range t.appends {
		if _, dup := s.refs[refKey(txn.ReferenceID, txn.Type)]; dup {
			return ports.ErrDuplicateReference
		}
	}

	for _, bw := range t.balances {
		w := s.wallets[bw.walletID]
		w.Balance = bw.newBalance
		w.Version = bw.expectedVersion + 1
	}
	for _, txn := range t.appends {
		cp := txn
		s.entries[txn.ID] = &cp
		s.refs[refKey(txn.ReferenceID, txn.Type)] = struct{}{}
	}
	t.balances, t.appends = nil, nil
	return nil
}

// Rollback discards the buffered writes. Calling it after Commit is a no-op.
func (t *memTx) Rollback(ctx context.Context) error {
	t.balances, t.appends = nil, nil
	t.done = true
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
