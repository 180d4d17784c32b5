package ports

import (
	"context"
	"time"

	"commerce-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// AccountRepository defines persistence operations for API accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByAccessKey(ctx context.Context, accessKey string) (*domain.Account, error)
}

// AuditRepository persists the append-only audit log. The log must stay
// queryable even when no other state remains.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.AuditEntry, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// NonceStore manages nonce uniqueness for replay attack prevention.
type NonceStore interface {
	// CheckAndSet atomically checks if nonce exists, sets it if not.
	// Returns true if nonce is new (valid), false if already used.
	CheckAndSet(ctx context.Context, accountID string, nonce string, ttl time.Duration) (bool, error)
}

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
