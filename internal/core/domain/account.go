package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus represents the state of an API account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is an authenticated API identity: merchants, payers and
// privileged operators all act through accounts. The account ID is the
// identity the settlement core authorizes against.
type Account struct {
	ID           uuid.UUID     `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"` // Never expose
	DisplayName  string        `json:"display_name"`
	AccessKey    string        `json:"access_key"`
	SecretKeyEnc string        `json:"-"` // Encrypted, never expose
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsActive returns true if the account may call the API.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
