// Package audit records the append-only trail of engine mutations.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// Auditor writes audit entries. Failures are logged and swallowed: the
// trail must never abort the mutation it describes.
type Auditor struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditor builds an auditor.
func NewAuditor(repo repository.AuditRepository, logger *zap.Logger) *Auditor {
	return &Auditor{repo: repo, logger: logger}
}

// Record persists one entry, stamping actor identity from the user.
func (a *Auditor) Record(ctx context.Context, actor *domain.User, entry domain.AuditEntry) {
	if a == nil || a.repo == nil {
		return
	}
	if actor != nil {
		entry.ActorID = &actor.ID
		entry.ActorEmail = &actor.Email
		entry.ActorName = &actor.Name
	}
	if err := a.repo.Create(ctx, &entry); err != nil {
		a.logger.Warn("audit entry not recorded",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", string(entry.EntityType)),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
		return
	}
	a.logger.Debug("audit",
		zap.String("action", string(entry.Action)),
		zap.String("entity_type", string(entry.EntityType)),
		zap.String("entity_id", entry.EntityID))
}

// ListForEntity returns the trail for one entity.
func (a *Auditor) ListForEntity(ctx context.Context, entityType domain.EntityType, entityID string, limit, offset int) ([]domain.AuditEntry, error) {
	return a.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}
