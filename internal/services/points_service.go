package services

import (
	"context"
	"errors"

	"greencycle/internal/repositories/interfaces"
	"greencycle/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PointsService is the thin boundary over the points account. Redemption
// debits go through the ledger transaction instead; this surface only covers
// balance reads and administrative grants.
type PointsService interface {
	Balance(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Grant(ctx context.Context, userID primitive.ObjectID, amount int64) (int64, error)
}

type pointsService struct {
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

func NewPointsService(userRepo interfaces.UserRepository, log *logger.Logger) PointsService {
	return &pointsService{
		userRepo: userRepo,
		logger:   log,
	}
}

func (s *pointsService) Balance(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	points, err := s.userRepo.GetPoints(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, &NotFoundError{Resource: "user"}
		}
		return 0, err
	}
	return points, nil
}

func (s *pointsService) Grant(ctx context.Context, userID primitive.ObjectID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Message: "amount must be positive"}
	}

	balance, err := s.userRepo.CreditPoints(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return 0, &NotFoundError{Resource: "user"}
		}
		return 0, err
	}

	s.logger.LogPointsEvent(userID, "points_granted", amount, balance)

	return balance, nil
}
