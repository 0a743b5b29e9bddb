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

const activePromoCacheKey = "promo_codes_active"

type promoCodeRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewPromoCodeRepository(db *mongo.Database, cache CacheService) interfaces.PromoCodeRepository {
	return &promoCodeRepository{
		collection: db.Collection("promo_codes"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *promoCodeRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	promo.ID = primitive.NewObjectID()
	promo.CreatedAt = time.Now()
	promo.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, promo)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("static code %q already taken: %w", promo.StaticCode, interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to create promo code: %w", err)
	}

	r.invalidateActiveList(ctx)

	return nil
}

func (r *promoCodeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&promo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("promo code %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	return &promo, nil
}

func (r *promoCodeRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("static code already taken: %w", interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to update promo code: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("promo code %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	r.invalidateActiveList(ctx)

	return nil
}

func (r *promoCodeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("promo code %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	r.invalidateActiveList(ctx)

	return nil
}

// Listing
func (r *promoCodeRepository) ListActive(ctx context.Context) ([]*models.PromoCode, error) {
	// Try cache first
	if r.cache != nil {
		var cached []*models.PromoCode
		if err := r.cache.Get(ctx, activePromoCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	promos, err := r.find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, activePromoCacheKey, promos, 5*time.Minute)
	}

	return promos, nil
}

func (r *promoCodeRepository) List(ctx context.Context, includeInactive bool) ([]*models.PromoCode, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["is_active"] = true
	}
	return r.find(ctx, filter)
}

func (r *promoCodeRepository) find(ctx context.Context, filter bson.M) ([]*models.PromoCode, error) {
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer cursor.Close(ctx)

	var promos []*models.PromoCode
	if err := cursor.All(ctx, &promos); err != nil {
		return nil, fmt.Errorf("failed to decode promo codes: %w", err)
	}

	return promos, nil
}

func (r *promoCodeRepository) invalidateActiveList(ctx context.Context) {
	if r.cache != nil {
		r.cache.Delete(ctx, activePromoCacheKey)
	}
}
