package interfaces

import (
	"context"

	"greencycle/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PromoCodeRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, promo *models.PromoCode) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Listing
	ListActive(ctx context.Context) ([]*models.PromoCode, error)
	List(ctx context.Context, includeInactive bool) ([]*models.PromoCode, error)
}
