package mongodb

import (
	"context"
	"fmt"
	"time"

	"greencycle/internal/models"
	"greencycle/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type redemptionRepository struct {
	collection *mongo.Collection
}

func NewRedemptionRepository(db *mongo.Database) interfaces.RedemptionRepository {
	return &redemptionRepository{
		collection: db.Collection("redemptions"),
	}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.Redemption) error {
	redemption.ID = primitive.NewObjectID()
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now()
	}

	// The partial unique index on (user_id, promo_code_id, status in
	// ACTIVE/USED) and the unique index on code both surface here as
	// duplicate-key errors.
	_, err := r.collection.InsertOne(ctx, redemption)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("redemption for user %s and promo %s: %w",
				redemption.UserID.Hex(), redemption.PromoCodeID.Hex(), interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

func (r *redemptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	var redemption models.Redemption
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&redemption)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("redemption %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}

	return &redemption, nil
}

func (r *redemptionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, status *models.RedemptionStatus) ([]*models.Redemption, error) {
	filter := bson.M{"user_id": userID}
	if status != nil {
		filter["status"] = *status
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.M{"redeemed_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer cursor.Close(ctx)

	var redemptions []*models.Redemption
	if err := cursor.All(ctx, &redemptions); err != nil {
		return nil, fmt.Errorf("failed to decode redemptions: %w", err)
	}

	return redemptions, nil
}

func (r *redemptionRepository) HasActiveOrUsed(ctx context.Context, userID, promoCodeID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"user_id":       userID,
		"promo_code_id": promoCodeID,
		"status":        bson.M{"$in": liveStatuses()},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check existing redemption: %w", err)
	}

	return count > 0, nil
}

func (r *redemptionRepository) ExistsForPromoCode(ctx context.Context, promoCodeID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"promo_code_id": promoCodeID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check promo code references: %w", err)
	}

	return count > 0, nil
}

func (r *redemptionRepository) RedeemedPromoCodeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "promo_code_id", bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": liveStatuses()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get redeemed promo codes: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Compare-and-set transitions
func (r *redemptionRepository) MarkUsed(ctx context.Context, id primitive.ObjectID, location string, usedAt time.Time) (bool, error) {
	return r.transition(ctx, id, bson.M{
		"status":        models.RedemptionStatusUsed,
		"used_at":       usedAt,
		"used_location": location,
	})
}

func (r *redemptionRepository) MarkExpired(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(ctx, id, bson.M{"status": models.RedemptionStatusExpired})
}

func (r *redemptionRepository) MarkRevoked(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return r.transition(ctx, id, bson.M{"status": models.RedemptionStatusRevoked})
}

// transition applies a status change only while the redemption is still
// ACTIVE, so concurrent transitions cannot apply twice.
func (r *redemptionRepository) transition(ctx context.Context, id primitive.ObjectID, set bson.M) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RedemptionStatusActive},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition redemption: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

func liveStatuses() []models.RedemptionStatus {
	return []models.RedemptionStatus{models.RedemptionStatusActive, models.RedemptionStatusUsed}
}
