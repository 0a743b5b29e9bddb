package interfaces

import (
	"context"
	"time"

	"greencycle/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedemptionRepository interface {
	// Create inserts a new redemption. Returns ErrDuplicate when the caller
	// already holds an ACTIVE or USED redemption for the same promo code, or
	// when the generated code collides. Composable with TransactionManager.
	Create(ctx context.Context, redemption *models.Redemption) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error)

	// ListByUser returns the user's redemptions newest-redeemed-first,
	// optionally filtered by status.
	ListByUser(ctx context.Context, userID primitive.ObjectID, status *models.RedemptionStatus) ([]*models.Redemption, error)

	// HasActiveOrUsed reports whether the user already holds a live
	// redemption for the promo code. Pre-check only; the partial unique index
	// is the authoritative guard.
	HasActiveOrUsed(ctx context.Context, userID, promoCodeID primitive.ObjectID) (bool, error)

	// ExistsForPromoCode reports whether any redemption references the promo
	// code, regardless of status.
	ExistsForPromoCode(ctx context.Context, promoCodeID primitive.ObjectID) (bool, error)

	// RedeemedPromoCodeIDs returns the distinct promo code ids the user holds
	// an ACTIVE or USED redemption for.
	RedeemedPromoCodeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)

	// Compare-and-set transitions, each guarded on status == ACTIVE. The
	// returned bool reports whether the transition applied; false means the
	// redemption was not ACTIVE at update time (or is missing).
	MarkUsed(ctx context.Context, id primitive.ObjectID, location string, usedAt time.Time) (bool, error)
	MarkExpired(ctx context.Context, id primitive.ObjectID) (bool, error)
	MarkRevoked(ctx context.Context, id primitive.ObjectID) (bool, error)
}
