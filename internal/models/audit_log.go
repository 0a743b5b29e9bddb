package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionRevoke AuditAction = "revoke"
	AuditActionGrant  AuditAction = "grant_points"
)

// AuditLog records an administrative action against the catalog, the ledger
// or a points account.
type AuditLog struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ActorID    *primitive.ObjectID    `json:"actor_id" bson:"actor_id"`
	Action     AuditAction            `json:"action" bson:"action" validate:"required"`
	Resource   string                 `json:"resource" bson:"resource" validate:"required"`
	ResourceID string                 `json:"resource_id" bson:"resource_id"`
	Details    map[string]interface{} `json:"details" bson:"details"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
