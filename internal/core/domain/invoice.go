package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusRefunded  InvoiceStatus = "REFUNDED"
	InvoiceStatusExpired   InvoiceStatus = "EXPIRED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentOption is one (asset, exact amount) pair a payer may settle with.
type PaymentOption struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

// Invoice is a bill issued on behalf of a merchant. Settlement fields
// (Payer, Asset, Amount, Fee) are zero until the invoice is paid.
type Invoice struct {
	ID         string          `json:"id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Options    []PaymentOption `json:"options"`
	Status     InvoiceStatus   `json:"status"`

	Payer  *uuid.UUID `json:"payer,omitempty"`
	Asset  string     `json:"asset,omitempty"`
	Amount int64      `json:"amount,omitempty"`
	Fee    int64      `json:"fee,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// IsPending returns true if the invoice can still transition.
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// IsExpiredAt returns true if an expiry is set and now has reached it.
// Expiry is observed, never applied automatically.
func (i *Invoice) IsExpiredAt(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// MatchesOption returns true if (asset, amount) equals one of the
// invoice's payment options exactly. No partial or overpayment tolerance.
func (i *Invoice) MatchesOption(asset string, amount int64) bool {
	for _, opt := range i.Options {
		if opt.Asset == asset && opt.Amount == amount {
			return true
		}
	}
	return false
}

// InvoiceStats aggregates per-merchant invoice counts by status.
type InvoiceStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Paid      int64 `json:"paid"`
	Refunded  int64 `json:"refunded"`
	Expired   int64 `json:"expired"`
	Cancelled int64 `json:"cancelled"`
}
