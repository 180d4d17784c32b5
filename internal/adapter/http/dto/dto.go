package dto

// --- Auth ---

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
// The secret key is shown exactly once.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// --- Invoices ---

// PaymentOption is one (asset, exact amount) pair on an invoice.
type PaymentOption struct {
	Asset  string `json:"asset" binding:"required,max=30,safe_id"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// CreateInvoiceRequest is the request body for invoice creation.
// MerchantID is optional; it defaults to the authenticated account and is
// only useful for operators issuing invoices on a merchant's behalf.
type CreateInvoiceRequest struct {
	ID         string          `json:"id" binding:"required,max=100,safe_id"`
	MerchantID *string         `json:"merchant_id,omitempty" binding:"omitempty,uuid"`
	Options    []PaymentOption `json:"options" binding:"required,min=1,max=20,dive"`
	ExpiresAt  *int64          `json:"expires_at,omitempty"` // Unix timestamp
}

// InvoiceBatchRequest requests several invoices by ID.
type InvoiceBatchRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100"`
}

// InvoiceResponse is the response body for invoice results.
type InvoiceResponse struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchant_id"`
	Options    []PaymentOption `json:"options"`
	Status     string          `json:"status"`

	Payer  *string `json:"payer,omitempty"`
	Asset  string  `json:"asset,omitempty"`
	Amount int64   `json:"amount,omitempty"`
	Fee    int64   `json:"fee,omitempty"`

	CreatedAt   string  `json:"created_at"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	PaidAt      *string `json:"paid_at,omitempty"`
	RefundedAt  *string `json:"refunded_at,omitempty"`
	ExpiredAt   *string `json:"expired_at,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

// InvoiceStatsResponse aggregates invoice counts by status.
type InvoiceStatsResponse struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Paid      int64 `json:"paid"`
	Refunded  int64 `json:"refunded"`
	Expired   int64 `json:"expired"`
	Cancelled int64 `json:"cancelled"`
}

// --- Payments ---

// PayRequest is the request body for settling an invoice.
type PayRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,max=100"`
	Asset     string `json:"asset" binding:"required,max=30"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// BalancesResponse reports a merchant's settled balances per asset.
type BalancesResponse struct {
	MerchantID string           `json:"merchant_id"`
	Balances   map[string]int64 `json:"balances"`
}

// FeeBalanceResponse reports the accumulated service fee pot for an asset.
type FeeBalanceResponse struct {
	Asset   string `json:"asset"`
	Balance int64  `json:"balance"`
}

// --- Withdrawals ---

// WithdrawRequest drains a merchant's full balance in one asset to the
// merchant itself. MerchantID defaults to the authenticated account.
type WithdrawRequest struct {
	MerchantID *string `json:"merchant_id,omitempty" binding:"omitempty,uuid"`
	Asset      string  `json:"asset" binding:"required,max=30"`
}

// WithdrawToRequest sends an exact amount to an explicit recipient.
type WithdrawToRequest struct {
	MerchantID *string `json:"merchant_id,omitempty" binding:"omitempty,uuid"`
	Asset      string  `json:"asset" binding:"required,max=30"`
	Amount     int64   `json:"amount" binding:"required,gt=0"`
	Recipient  string  `json:"recipient" binding:"required,uuid"`
}

// WithdrawAllRequest drains several assets in one call.
type WithdrawAllRequest struct {
	MerchantID *string  `json:"merchant_id,omitempty" binding:"omitempty,uuid"`
	Assets     []string `json:"assets" binding:"required,min=1,max=50"`
}

// WithdrawalResponse is the response body for withdrawal records.
type WithdrawalResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Asset       string  `json:"asset"`
	Amount      int64   `json:"amount"`
	Recipient   string  `json:"recipient"`
	InitiatedBy string  `json:"initiated_by"`
	MerchantID  *string `json:"merchant_id,omitempty"`
	WalletID    *string `json:"wallet_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// --- Registry (admin) ---

// RoleRequest grants or revokes a role on an account.
type RoleRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Role      string `json:"role" binding:"required,max=32"`
}

// SetFeeRequest sets a fee rate in basis points. A pointer so that an
// explicit zero survives binding.
type SetFeeRequest struct {
	Bps *int64 `json:"bps" binding:"required,gte=0"`
}

// FeeResponse reports a fee rate and whether it is a merchant override.
type FeeResponse struct {
	Bps      int64 `json:"bps"`
	Override bool  `json:"override,omitempty"`
}

// ListAssetsRequest adds or removes assets from the global whitelist.
type ListAssetsRequest struct {
	Assets []string `json:"assets" binding:"required,min=1,max=100"`
	Listed *bool    `json:"listed" binding:"required"`
}

// ListMerchantsRequest adds or removes merchants from the whitelist.
type ListMerchantsRequest struct {
	Merchants []string `json:"merchants" binding:"required,min=1,max=100,dive,uuid"`
	Listed    *bool    `json:"listed" binding:"required"`
}

// StatusResponse reports the global pause switch.
type StatusResponse struct {
	Paused bool `json:"paused"`
}

// --- Treasury ---

// AddWalletRequest registers a treasury wallet.
type AddWalletRequest struct {
	WalletID    string `json:"wallet_id" binding:"required,uuid"`
	Description string `json:"description" binding:"max=200"`
}

// UpdateWalletRequest changes a wallet's description.
type UpdateWalletRequest struct {
	Description string `json:"description" binding:"max=200"`
}

// SetWalletActiveRequest toggles whether a wallet may receive sweeps.
type SetWalletActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SweepRequest moves one asset's fee pot to a treasury wallet.
type SweepRequest struct {
	Asset    string `json:"asset" binding:"required,max=30"`
	WalletID string `json:"wallet_id" binding:"required,uuid"`
}

// SweepAllRequest sweeps every asset with a non-zero fee pot.
type SweepAllRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
}

// TreasuryWalletResponse is the response body for treasury wallets.
type TreasuryWalletResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	AddedAt     string `json:"added_at"`
	UpdatedAt   string `json:"updated_at"`
}

// TreasuryStatsResponse aggregates sweep history.
type TreasuryStatsResponse struct {
	TotalSweeps   int64            `json:"total_sweeps"`
	TotalsByAsset map[string]int64 `json:"totals_by_asset"`
}

// --- Audit ---

// AuditEntryResponse is the response body for audit log entries.
type AuditEntryResponse struct {
	ID        string  `json:"id"`
	Op        string  `json:"op"`
	EntityID  string  `json:"entity_id"`
	ActorID   *string `json:"actor_id,omitempty"`
	Asset     string  `json:"asset,omitempty"`
	Amount    int64   `json:"amount,omitempty"`
	Details   string  `json:"details,omitempty"`
	CreatedAt string  `json:"created_at"`
}
