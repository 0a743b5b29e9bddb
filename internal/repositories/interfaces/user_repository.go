package interfaces

import (
	"context"

	"greencycle/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Points account operations
	GetPoints(ctx context.Context, id primitive.ObjectID) (int64, error)

	// DebitPoints atomically subtracts amount from the user's balance and
	// returns the remaining balance. It applies only when the current balance
	// covers the amount; otherwise it returns ErrNotFound without effect.
	// Composable with TransactionManager via ctx.
	DebitPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error)

	// CreditPoints atomically adds amount to the user's balance and returns
	// the new balance.
	CreditPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error)
}
