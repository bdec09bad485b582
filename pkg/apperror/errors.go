package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Ledger Business Logic (WALLET) ----

// CodeWalletNotFound identifies WALLET_002 errors so orchestration code can
// re-label which entity was missing.
const CodeWalletNotFound = "WALLET_002"

// ErrInvalidAmount rejects a non-positive or malformed amount. Never retried.
func ErrInvalidAmount() *AppError {
	return New("WALLET_001", "Amount must be greater than zero", http.StatusBadRequest)
}

// ErrWalletNotFound reports a missing wallet. The entity label names which
// wallet is absent ("wallet", "source wallet", "target wallet").
func ErrWalletNotFound(entity string) *AppError {
	return New(CodeWalletNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrInsufficientBalance rejects a withdrawal that would drive the balance
// negative. State-dependent, never retried, no side effect.
func ErrInsufficientBalance() *AppError {
	return New("WALLET_003", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

// ErrDuplicateReference reports a resubmission under an already-used
// (reference id, operation type) pair. Any side effect of the attempt has
// been rolled back before this surfaces.
func ErrDuplicateReference() *AppError {
	return New("WALLET_004", "Reference id already used for this operation type", http.StatusConflict)
}

// ErrConcurrencyExhausted surfaces after the bounded retry budget for
// version conflicts is spent.
func ErrConcurrencyExhausted(err error) *AppError {
	return Wrap("WALLET_005", "Too many concurrent updates, retry budget exhausted", http.StatusConflict, err)
}

// ErrSameWalletTransfer rejects a transfer whose source and target coincide.
func ErrSameWalletTransfer() *AppError {
	return New("WALLET_006", "Source and target wallets cannot be the same", http.StatusBadRequest)
}

// ErrTransferInconsistent reports a debited source with no matching credit
// after the compensating credit also failed. Requires manual reconciliation;
// must never be treated as an ordinary failure.
func ErrTransferInconsistent(err error) *AppError {
	return Wrap("WALLET_007", "Transfer left inconsistent state, manual reconciliation required", http.StatusInternalServerError, err)
}

// ErrOwnerWalletExists rejects a second wallet for the same owner.
func ErrOwnerWalletExists() *AppError {
	return New("WALLET_008", "Owner already has a wallet", http.StatusConflict)
}

// Validation returns a request-validation error.
func Validation(message string) *AppError {
	return New("WALLET_001", message, http.StatusBadRequest)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
