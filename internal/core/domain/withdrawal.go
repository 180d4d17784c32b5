package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalKind distinguishes merchant withdrawals from treasury sweeps.
type WithdrawalKind string

const (
	WithdrawalKindMerchant WithdrawalKind = "MERCHANT"
	WithdrawalKindTreasury WithdrawalKind = "TREASURY"
)

// WithdrawalRecord is an append-only entry describing value leaving the
// ledger's custody.
type WithdrawalRecord struct {
	ID          uuid.UUID      `json:"id"`
	Kind        WithdrawalKind `json:"kind"`
	Asset       string         `json:"asset"`
	Amount      int64          `json:"amount"`
	Recipient   uuid.UUID      `json:"recipient"`
	InitiatedBy uuid.UUID      `json:"initiated_by"`

	// MerchantID is set for merchant withdrawals, WalletID for sweeps.
	MerchantID *uuid.UUID `json:"merchant_id,omitempty"`
	WalletID   *uuid.UUID `json:"wallet_id,omitempty"`

	// InvoiceID links refund-adjacent bookkeeping to its origin.
	InvoiceID *string `json:"invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// WithdrawalQuery filters withdrawal history lookups. Nil fields match all.
type WithdrawalQuery struct {
	MerchantID *uuid.UUID
	WalletID   *uuid.UUID
	Asset      *string
	Kind       *WithdrawalKind
	From       *time.Time
	To         *time.Time
}

// Matches reports whether r satisfies every set filter.
func (q WithdrawalQuery) Matches(r *WithdrawalRecord) bool {
	if q.MerchantID != nil && (r.MerchantID == nil || *r.MerchantID != *q.MerchantID) {
		return false
	}
	if q.WalletID != nil && (r.WalletID == nil || *r.WalletID != *q.WalletID) {
		return false
	}
	if q.Asset != nil && r.Asset != *q.Asset {
		return false
	}
	if q.Kind != nil && r.Kind != *q.Kind {
		return false
	}
	if q.From != nil && r.CreatedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && r.CreatedAt.After(*q.To) {
		return false
	}
	return true
}
