package domain

import (
	"time"

	"github.com/google/uuid"
)

// TreasuryWallet is a registered destination for protocol fee sweeps.
// Wallets are never hard-deleted while history references them; removal
// only takes them off the enumerable list.
type TreasuryWallet struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	Listed      bool      `json:"listed"`
	AddedAt     time.Time `json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TreasuryStats aggregates sweep history for analytics.
type TreasuryStats struct {
	TotalSweeps   int64            `json:"total_sweeps"`
	TotalsByAsset map[string]int64 `json:"totals_by_asset"`
}
