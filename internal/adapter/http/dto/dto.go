package dto

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// WalletResponse is the response body for a created wallet.
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
}

// MutationRequest is the request body for withdraw and deposit.
// Amounts travel as decimal strings so no precision is lost in transit.
type MutationRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

// MutationResponse is the response body for a committed withdraw or deposit.
type MutationResponse struct {
	WalletID    string `json:"wallet_id"`
	ReferenceID string `json:"reference_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
}

// BalanceResponse is the response for a current balance query.
type BalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
}

// HistoricalBalanceResponse is the response for a historical balance query.
type HistoricalBalanceResponse struct {
	WalletID string `json:"wallet_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Balance  string `json:"balance"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	SourceWalletID string `json:"source_wallet_id" binding:"required,uuid"`
	TargetWalletID string `json:"target_wallet_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required,money"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	SourceWalletID string `json:"source_wallet_id"`
	TargetWalletID string `json:"target_wallet_id"`
	ReferenceID    string `json:"reference_id"`
	Amount         string `json:"amount"`
}
