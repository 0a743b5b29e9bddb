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

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user already exists: %w", interfaces.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	r.invalidatePoints(ctx, id)

	return nil
}

// Points account operations
func (r *userRepository) GetPoints(ctx context.Context, id primitive.ObjectID) (int64, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("user_points_%s", id.Hex())
	if r.cache != nil {
		var points int64
		if err := r.cache.Get(ctx, cacheKey, &points); err == nil {
			return points, nil
		}
	}

	var user struct {
		Points int64 `bson:"points"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"points": 1})).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("user %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get points: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, user.Points, time.Minute)
	}

	return user.Points, nil
}

// DebitPoints is a single conditional $inc: the filter requires the balance
// to cover the amount, so the balance can never go negative and there is no
// separate read-then-write window.
func (r *userRepository) DebitPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "points": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"points": -amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("user %s with balance >= %d: %w", id.Hex(), amount, interfaces.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to debit points: %w", err)
	}

	r.invalidatePoints(ctx, id)

	return user.Points, nil
}

func (r *userRepository) CreditPoints(ctx context.Context, id primitive.ObjectID, amount int64) (int64, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"points": amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("user %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to credit points: %w", err)
	}

	r.invalidatePoints(ctx, id)

	return user.Points, nil
}

func (r *userRepository) invalidatePoints(ctx context.Context, id primitive.ObjectID) {
	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf("user_points_%s", id.Hex()))
	}
}
