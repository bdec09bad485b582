package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles wallet-to-wallet transfers.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransferHandler) Transfer(c *gin.Context) {
	referenceID := c.GetHeader(HeaderReferenceID)
	if referenceID == "" {
		response.Error(c, apperror.Validation("Reference-Id header is required"))
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	sourceID, err := uuid.Parse(req.SourceWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("source_wallet_id must be a valid UUID"))
		return
	}
	targetID, err := uuid.Parse(req.TargetWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("target_wallet_id must be a valid UUID"))
		return
	}
	amount, err := domain.NewMoney(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	if err := h.transferSvc.Transfer(c.Request.Context(), sourceID, targetID, amount, referenceID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransferResponse{
		SourceWalletID: sourceID.String(),
		TargetWalletID: targetID.String(),
		ReferenceID:    referenceID,
		Amount:         amount.String(),
	})
}
