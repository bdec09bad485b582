package service

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReversalSuffix derives the compensation reference id from the original one,
// so a reversal never collides with the transfer's own deposit leg.
const ReversalSuffix = "-REVERSAL"

// TransferServiceImpl implements ports.TransferService. A transfer is two
// single-wallet mutations sharing one reference id: a withdrawal on the
// source, then a deposit on the target. The two legs are separate atomic
// units connected by compensation, not one cross-wallet transaction.
type TransferServiceImpl struct {
	wallets ports.WalletService
	log     zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(wallets ports.WalletService, log zerolog.Logger) *TransferServiceImpl {
	return &TransferServiceImpl{wallets: wallets, log: log}
}

// Transfer moves amount from the source wallet to the target wallet.
// On success exactly two ledger entries exist, WITHDRAW on source and DEPOSIT
// on target, sharing referenceID. If the credit leg fails after the debit
// committed, a compensating deposit restores the source before the original
// error surfaces; if the compensation also fails the operation reports an
// inconsistent transfer requiring manual reconciliation.
func (s *TransferServiceImpl) Transfer(ctx context.Context, sourceWalletID, targetWalletID uuid.UUID, amount domain.Money, referenceID string) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if sourceWalletID == targetWalletID {
		return apperror.ErrSameWalletTransfer()
	}

	if err := s.wallets.Withdraw(ctx, sourceWalletID, amount, referenceID); err != nil {
		// Debit never happened; nothing to unwind.
		return nameWalletSide(err, "source wallet")
	}

	if err := s.wallets.Deposit(ctx, targetWalletID, amount, referenceID); err != nil {
		compErr := s.wallets.Deposit(ctx, sourceWalletID, amount, referenceID+ReversalSuffix)
		if compErr != nil {
			s.log.Error().
				Str("source_wallet_id", sourceWalletID.String()).
				Str("target_wallet_id", targetWalletID.String()).
				Str("reference_id", referenceID).
				Str("amount", amount.String()).
				AnErr("credit_error", err).
				AnErr("compensation_error", compErr).
				Msg("transfer compensation failed, manual reconciliation required")
			return apperror.ErrTransferInconsistent(
				fmt.Errorf("credit failed: %w; compensation failed: %v", err, compErr))
		}

		s.log.Warn().
			Str("source_wallet_id", sourceWalletID.String()).
			Str("reference_id", referenceID).
			Err(err).
			Msg("transfer credit failed, source compensated")
		return nameWalletSide(err, "target wallet")
	}

	s.log.Info().
		Str("source_wallet_id", sourceWalletID.String()).
		Str("target_wallet_id", targetWalletID.String()).
		Str("reference_id", referenceID).
		Str("amount", amount.String()).
		Msg("transfer completed")
	return nil
}

// nameWalletSide rewrites a generic wallet-not-found error so the caller
// learns which side of the transfer was missing.
func nameWalletSide(err error, side string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == apperror.CodeWalletNotFound {
		return apperror.ErrWalletNotFound(side)
	}
	return err
}
