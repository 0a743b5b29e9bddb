package services

import (
	"context"

	"greencycle/internal/models"
	"greencycle/internal/repositories/interfaces"
	"greencycle/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditRecorder persists administrative actions. Recording is best-effort:
// a failed write is logged but never fails the action being audited.
type AuditRecorder interface {
	RecordAction(ctx context.Context, action models.AuditAction, resource, resourceID string, actorID *primitive.ObjectID, details map[string]interface{})
	RecordPointsChange(ctx context.Context, userID primitive.ObjectID, delta int64, reason string, actorID *primitive.ObjectID)
}

type auditService struct {
	repo   interfaces.AuditLogRepository
	audit  *logger.AuditLogger
	logger *logger.Logger
}

func NewAuditService(repo interfaces.AuditLogRepository, log *logger.Logger) AuditRecorder {
	return &auditService{
		repo:   repo,
		audit:  logger.NewAuditLogger(log),
		logger: log,
	}
}

func (s *auditService) RecordAction(ctx context.Context, action models.AuditAction, resource, resourceID string, actorID *primitive.ObjectID, details map[string]interface{}) {
	s.audit.LogAction(string(action), resource, actorID, details)

	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Failed to persist audit log")
	}
}

func (s *auditService) RecordPointsChange(ctx context.Context, userID primitive.ObjectID, delta int64, reason string, actorID *primitive.ObjectID) {
	s.audit.LogPointsAudit(userID, delta, reason, actorID)

	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     models.AuditActionGrant,
		Resource:   "points_account",
		ResourceID: userID.Hex(),
		Details: map[string]interface{}{
			"delta":  delta,
			"reason": reason,
		},
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Failed to persist audit log")
	}
}
