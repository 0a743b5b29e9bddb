package interfaces

import (
	"context"

	"greencycle/internal/models"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error

	// ListByResource returns the newest entries for a resource type, capped
	// at limit.
	ListByResource(ctx context.Context, resource string, limit int64) ([]*models.AuditLog, error)
}
