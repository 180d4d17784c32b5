package service

import (
	"context"
	"time"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists an audit entry asynchronously (fire-and-forget).
func (s *auditService) Record(ctx context.Context, entry *domain.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	go func() {
		ev := s.log.Info().
			Str("op", string(entry.Op)).
			Str("entity_id", entry.EntityID)
		if entry.ActorID != nil {
			ev = ev.Str("actor_id", entry.ActorID.String())
		}
		if entry.Asset != "" {
			ev = ev.Str("asset", entry.Asset).Int64("amount", entry.Amount)
		}
		ev.Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("op", string(entry.Op)).Msg("failed to persist audit entry")
			}
		}
	}()
}

// ListByEntity returns the audit trail of one entity, newest first.
func (s *auditService) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.AuditEntry, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByEntity(ctx, entityID, limit)
}

// ListByActor returns the operations one actor performed, newest first.
func (s *auditService) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByActor(ctx, actorID, limit)
}

// ListRecent returns the most recent audit entries across all entities.
func (s *auditService) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListRecent(ctx, limit)
}
