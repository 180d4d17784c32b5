package postgres

import (
	"context"
	"fmt"

	"commerce-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const auditColumns = "id, op, entity_id, actor_id, asset, amount, details, created_at"

// AuditRepo implements ports.AuditRepository. The audit log is the one
// durable trail that outlives everything else, so it gets its own table
// rather than living in the in-memory ledger.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends an audit entry. Entries are never updated or deleted.
func (r *AuditRepo) Create(ctx context.Context, e *domain.AuditEntry) error {
	query := `INSERT INTO audit_entries (id, op, entity_id, actor_id, asset, amount, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, string(e.Op), e.EntityID, e.ActorID,
		e.Asset, e.Amount, e.Details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns the audit trail of one entity, newest first.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries
		WHERE entity_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit by entity: %w", err)
	}
	return scanEntries(rows)
}

// ListByActor returns the operations one actor performed, newest first.
func (r *AuditRepo) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries
		WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit by actor: %w", err)
	}
	return scanEntries(rows)
}

// ListRecent returns the most recent audit entries across all entities.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries
		ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]domain.AuditEntry, error) {
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var op string
		if err := rows.Scan(&e.ID, &op, &e.EntityID, &e.ActorID, &e.Asset, &e.Amount, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Op = domain.AuditOp(op)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
