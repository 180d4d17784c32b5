package ports

import (
	"context"
	"time"

	"commerce-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Crypto & token services ---

// EncryptionService handles AES-256-GCM encryption of secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService authenticates machine-to-machine requests. A request
// is signed over METHOD|PATH|TIMESTAMP|NONCE|BODY with the account's
// secret key.
type SignatureService interface {
	SignRequest(secretKey, method, path string, timestamp int64, nonce string, body []byte) string
	VerifyRequest(secretKey, method, path string, timestamp int64, nonce string, body []byte, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, accessKey string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	AccessKey string
}

// --- Authorization & whitelist registry ---

// RegistryService owns roles, whitelists, fee configuration and the
// global pause switch. Every mutation takes the caller identity
// explicitly; there is no ambient caller state.
type RegistryService interface {
	GrantRole(ctx context.Context, actor, account uuid.UUID, role domain.Role) error
	RevokeRole(ctx context.Context, actor, account uuid.UUID, role domain.Role) error
	RolesOf(ctx context.Context, account uuid.UUID) []domain.Role
	HasRole(ctx context.Context, account uuid.UUID, role domain.Role) bool

	SetDefaultFee(ctx context.Context, actor uuid.UUID, bps int64) error
	DefaultFee(ctx context.Context) int64
	SetMerchantFee(ctx context.Context, actor, merchant uuid.UUID, bps int64) error
	ClearMerchantFee(ctx context.Context, actor, merchant uuid.UUID) error
	MerchantFee(ctx context.Context, merchant uuid.UUID) (bps int64, override bool)

	SetAssetsListed(ctx context.Context, actor uuid.UUID, assets []string, listed bool) error
	ListedAssets(ctx context.Context) []string
	SetMerchantsListed(ctx context.Context, actor uuid.UUID, merchants []uuid.UUID, listed bool) error
	ListedMerchants(ctx context.Context) []uuid.UUID
	SetMerchantAssets(ctx context.Context, actor, merchant uuid.UUID, assets []string, listed bool) error
	MerchantAssets(ctx context.Context, merchant uuid.UUID) []string

	Pause(ctx context.Context, actor uuid.UUID) error
	Unpause(ctx context.Context, actor uuid.UUID) error
	IsPaused(ctx context.Context) bool
}

// --- Invoice lifecycle ---

// CreateInvoiceRequest holds validated input for invoice creation.
type CreateInvoiceRequest struct {
	ID         string
	MerchantID uuid.UUID
	Options    []domain.PaymentOption
	ExpiresAt  *time.Time
}

// InvoiceService creates, cancels and expires invoices and answers
// invoice queries.
type InvoiceService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateInvoiceRequest) (*domain.Invoice, error)
	Cancel(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error)
	Expire(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error)

	Get(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	GetBatch(ctx context.Context, invoiceIDs []string) []domain.Invoice
	ByMerchant(ctx context.Context, merchant uuid.UUID, status *domain.InvoiceStatus) []domain.Invoice
	Recent(ctx context.Context, n int) []domain.Invoice
	Stats(ctx context.Context, merchant uuid.UUID) domain.InvoiceStats
}

// --- Payment settlement ---

// PayRequest holds validated input for invoice settlement.
type PayRequest struct {
	InvoiceID string
	Asset     string
	Amount    int64
}

// SettlementService validates and executes payments and refunds.
type SettlementService interface {
	Pay(ctx context.Context, payer uuid.UUID, req PayRequest) (*domain.Invoice, error)
	Refund(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error)

	Balance(ctx context.Context, merchant uuid.UUID, asset string) int64
	Balances(ctx context.Context, merchant uuid.UUID, assets []string) map[string]int64
	ServiceFeeBalance(ctx context.Context, asset string) int64
}

// --- Withdrawals ---

// WithdrawalService moves merchant balances out of the ledger's custody
// and answers withdrawal history queries.
type WithdrawalService interface {
	Withdraw(ctx context.Context, actor, merchant uuid.UUID, asset string) (*domain.WithdrawalRecord, error)
	WithdrawTo(ctx context.Context, actor, merchant uuid.UUID, asset string, amount int64, recipient uuid.UUID) (*domain.WithdrawalRecord, error)
	WithdrawAll(ctx context.Context, actor, merchant uuid.UUID, assets []string) ([]domain.WithdrawalRecord, error)

	Count(ctx context.Context) int64
	ByIndex(ctx context.Context, index int64) (*domain.WithdrawalRecord, error)
	Recent(ctx context.Context, n int) []domain.WithdrawalRecord
	Query(ctx context.Context, q domain.WithdrawalQuery) []domain.WithdrawalRecord
	TotalsByAsset(ctx context.Context, q domain.WithdrawalQuery) map[string]int64
}

// --- Treasury ---

// TreasuryService sweeps accumulated protocol fees to registered
// treasury wallets and manages the wallet lifecycle.
type TreasuryService interface {
	AddWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, description string) (*domain.TreasuryWallet, error)
	RemoveWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID) error
	UpdateWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, description string) error
	SetWalletActive(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, active bool) error
	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.TreasuryWallet, error)
	Wallets(ctx context.Context, activeOnly bool) []domain.TreasuryWallet

	Sweep(ctx context.Context, actor uuid.UUID, asset string, walletID uuid.UUID) (*domain.WithdrawalRecord, error)
	SweepAll(ctx context.Context, actor uuid.UUID, walletID uuid.UUID) ([]domain.WithdrawalRecord, error)

	History(ctx context.Context, walletID uuid.UUID) []domain.WithdrawalRecord
	Stats(ctx context.Context) domain.TreasuryStats
}

// --- Accounts & audit ---

// AuthService defines account registration and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
}

// RegisterResponse holds the registration result shown once.
type RegisterResponse struct {
	AccountID uuid.UUID
	AccessKey string
	SecretKey string // Plaintext, shown only at registration
}

// AuditService records audit entries for every state-changing operation.
type AuditService interface {
	Record(ctx context.Context, entry *domain.AuditEntry)
	ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.AuditEntry, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
