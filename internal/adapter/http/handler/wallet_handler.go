package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderReferenceID carries the client-chosen idempotency reference for
// withdraw, deposit, and transfer requests.
const HeaderReferenceID = "Reference-Id"

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a valid UUID"))
		return
	}

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.WalletResponse{
		ID:        wallet.ID.String(),
		OwnerID:   wallet.OwnerID.String(),
		Balance:   wallet.Balance.String(),
		Version:   wallet.Version,
		CreatedAt: wallet.CreatedAt.Format(time.RFC3339),
	})
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id must be a valid UUID"))
		return
	}

	balance, err := h.walletSvc.GetBalance(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  balance.String(),
	})
}

// GetHistoricalBalance handles GET /api/v1/wallets/:id/historic-balance.
// Query parameters from and to are RFC3339 timestamps.
func (h *WalletHandler) GetHistoricalBalance(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id must be a valid UUID"))
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.Error(c, apperror.Validation("from must be an RFC3339 timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.Error(c, apperror.Validation("to must be an RFC3339 timestamp"))
		return
	}

	balance, err := h.walletSvc.GetHistoricalBalance(c.Request.Context(), walletID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.HistoricalBalanceResponse{
		WalletID: walletID.String(),
		From:     from.Format(time.RFC3339),
		To:       to.Format(time.RFC3339),
		Balance:  balance.String(),
	})
}

// Withdraw handles POST /api/v1/wallets/:id/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.mutate(c, domain.TransactionTypeWithdraw)
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.mutate(c, domain.TransactionTypeDeposit)
}

func (h *WalletHandler) mutate(c *gin.Context, typ domain.TransactionType) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet id must be a valid UUID"))
		return
	}

	referenceID := c.GetHeader(HeaderReferenceID)
	if referenceID == "" {
		response.Error(c, apperror.Validation("Reference-Id header is required"))
		return
	}

	var req dto.MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := domain.NewMoney(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	ctx := c.Request.Context()
	if typ == domain.TransactionTypeWithdraw {
		err = h.walletSvc.Withdraw(ctx, walletID, amount, referenceID)
	} else {
		err = h.walletSvc.Deposit(ctx, walletID, amount, referenceID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.MutationResponse{
		WalletID:    walletID.String(),
		ReferenceID: referenceID,
		Type:        string(typ),
		Amount:      amount.String(),
	})
}
