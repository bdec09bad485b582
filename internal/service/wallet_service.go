package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/LerianStudio/lib-uncommons/v2/uncommons/backoff"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// receiptTTL bounds how long a committed mutation's receipt stays in the
// fast-path duplicate check. The store's uniqueness constraint outlives it.
const receiptTTL = 24 * time.Hour

// RetryPolicy bounds the automatic retry of version conflicts. Only version
// conflicts are retried; validation, not-found, and business-rule failures
// are terminal for the call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the documented defaults: three attempts with a
// one-second base delay between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	receipts   ports.ReceiptCache // nil disables the fast-path duplicate check
	retry      RetryPolicy
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	receipts ports.ReceiptCache,
	retry RetryPolicy,
	log zerolog.Logger,
) *WalletServiceImpl {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		receipts:   receipts,
		retry:      retry,
		log:        log,
	}
}

// CreateWallet provisions a zero-balance wallet for the owner. One wallet per
// owner; a second request for the same owner fails with a conflict.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet := domain.NewWallet(ownerID)

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, ports.ErrOwnerTaken) {
			return nil, apperror.ErrOwnerWalletExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("wallet created")

	return wallet, nil
}

// GetBalance returns the wallet's current balance.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (domain.Money, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return domain.Money{}, apperror.ErrWalletNotFound("wallet")
	}
	return wallet.Balance, nil
}

// GetHistoricalBalance replays the wallet's transaction log over [from, to]
// and returns the signed sum of the movements. Balances are reconstructed
// from transaction amounts, never read from the wallet row.
func (s *WalletServiceImpl) GetHistoricalBalance(ctx context.Context, walletID uuid.UUID, from, to time.Time) (domain.Money, error) {
	if to.Before(from) {
		return domain.Money{}, apperror.Validation("time window end precedes its start")
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return domain.Money{}, apperror.ErrWalletNotFound("wallet")
	}

	entries, err := s.txRepo.ListByWalletBetween(ctx, walletID, from, to)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	balance := domain.ZeroMoney()
	for i := range entries {
		balance = balance.Add(entries[i].SignedAmount())
	}
	return balance, nil
}

// Withdraw debits amount from the wallet and appends a WITHDRAW entry under
// referenceID, atomically per attempt.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string) error {
	return s.mutate(ctx, walletID, amount, referenceID, domain.TransactionTypeWithdraw)
}

// Deposit credits amount to the wallet and appends a DEPOSIT entry under
// referenceID, atomically per attempt.
func (s *WalletServiceImpl) Deposit(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string) error {
	return s.mutate(ctx, walletID, amount, referenceID, domain.TransactionTypeDeposit)
}

// mutate runs the balance state transition with bounded retry on version
// conflicts. Each attempt re-reads the wallet and recomputes the new balance
// from the freshly observed state, so no lock is held during validation.
func (s *WalletServiceImpl) mutate(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string, typ domain.TransactionType) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if strings.TrimSpace(referenceID) == "" {
		return apperror.Validation("reference id is required")
	}

	receiptKey := BuildReceiptKey(referenceID, typ)
	if s.receipts != nil {
		seen, err := s.receipts.Seen(ctx, receiptKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", receiptKey).Msg("receipt cache check failed, falling through to store")
		} else if seen {
			return apperror.ErrDuplicateReference()
		}
	}

	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff.ExponentialWithJitter(s.retry.BaseDelay, attempt-1)
			if err := backoff.SleepWithContext(ctx, delay); err != nil {
				return apperror.InternalError(fmt.Errorf("retry delay: %w", err))
			}
		}

		err := s.attemptMutation(ctx, walletID, amount, referenceID, typ)
		if errors.Is(err, ports.ErrVersionConflict) {
			s.log.Debug().
				Str("wallet_id", walletID.String()).
				Int("attempt", attempt+1).
				Msg("version conflict, retrying mutation")
			continue
		}
		if err != nil {
			return err
		}

		if s.receipts != nil {
			if err := s.receipts.Mark(ctx, receiptKey, receiptTTL); err != nil {
				s.log.Warn().Err(err).Str("key", receiptKey).Msg("failed to record receipt")
			}
		}

		s.log.Info().
			Str("wallet_id", walletID.String()).
			Str("reference_id", referenceID).
			Str("type", string(typ)).
			Str("amount", amount.String()).
			Msg("mutation committed")
		return nil
	}

	return apperror.ErrConcurrencyExhausted(
		fmt.Errorf("wallet %s: %d attempts ended in version conflict", walletID, s.retry.MaxAttempts))
}

// attemptMutation is one atomic unit of work: read, validate, CAS the
// balance, append the ledger entry, commit. Either all of it persists or
// none of it does.
func (s *WalletServiceImpl) attemptMutation(ctx context.Context, walletID uuid.UUID, amount domain.Money, referenceID string, typ domain.TransactionType) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound("wallet")
	}

	var newBalance domain.Money
	switch typ {
	case domain.TransactionTypeWithdraw:
		if wallet.Balance.Cmp(amount) < 0 {
			return apperror.ErrInsufficientBalance()
		}
		newBalance = wallet.Balance.Sub(amount)
	case domain.TransactionTypeDeposit:
		newBalance = wallet.Balance.Add(amount)
	default:
		return apperror.InternalError(fmt.Errorf("unknown transaction type %q", typ))
	}

	if _, err := s.walletRepo.CompareAndSwapBalance(ctx, dbTx, walletID, wallet.Version, newBalance); err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			return err
		}
		// The wallet vanished between the read and the swap. Terminal, not
		// a retryable conflict.
		if errors.Is(err, ports.ErrWalletNotFound) {
			return apperror.ErrWalletNotFound("wallet")
		}
		return apperror.InternalError(fmt.Errorf("compare-and-swap balance: %w", err))
	}

	txn := domain.NewTransaction(walletID, typ, amount, referenceID)
	if err := s.txRepo.Append(ctx, dbTx, txn); err != nil {
		// The attempt's balance write dies with the transaction; the
		// duplicate submission leaves no side effect.
		if errors.Is(err, ports.ErrDuplicateReference) {
			return apperror.ErrDuplicateReference()
		}
		return apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		// Stores that defer the version re-check to commit surface the
		// conflict here; it stays retryable.
		if errors.Is(err, ports.ErrVersionConflict) {
			return err
		}
		if errors.Is(err, ports.ErrDuplicateReference) {
			return apperror.ErrDuplicateReference()
		}
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// BuildReceiptKey derives the duplicate-check cache key for a mutation.
func BuildReceiptKey(referenceID string, typ domain.TransactionType) string {
	return referenceID + ":" + string(typ)
}
