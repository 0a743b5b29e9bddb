package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"greencycle/internal/models"
	"greencycle/internal/repositories/interfaces"
	"greencycle/internal/utils"
	"greencycle/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// uniqueCodeAttempts bounds the in-transaction retry when a generated
// redemption code collides. A duplicate that is not a code collision is a
// concurrent redemption and is never retried here.
const uniqueCodeAttempts = 3

type RedemptionService interface {
	// Redeem converts points into a single-use redemption code. The
	// eligibility checks, the points debit and the redemption insert run as
	// one atomic transaction; on any failure nothing is persisted.
	Redeem(ctx context.Context, userID, promoCodeID primitive.ObjectID) (*models.RedeemResponse, error)

	// MarkUsed transitions an ACTIVE redemption to USED. A redemption whose
	// validity window has passed is first persisted as EXPIRED, then reported
	// via ExpiredError.
	MarkUsed(ctx context.Context, id primitive.ObjectID, location string) (*models.Redemption, error)

	// Revoke is the administrative ACTIVE -> REVOKED transition.
	Revoke(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error)

	Get(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, status *models.RedemptionStatus) ([]*models.Redemption, error)
}

type redemptionService struct {
	tx             interfaces.TransactionManager
	redemptionRepo interfaces.RedemptionRepository
	promoRepo      interfaces.PromoCodeRepository
	userRepo       interfaces.UserRepository
	logger         *logger.Logger
	now            func() time.Time
}

func NewRedemptionService(
	tx interfaces.TransactionManager,
	redemptionRepo interfaces.RedemptionRepository,
	promoRepo interfaces.PromoCodeRepository,
	userRepo interfaces.UserRepository,
	logger *logger.Logger,
) RedemptionService {
	return &redemptionService{
		tx:             tx,
		redemptionRepo: redemptionRepo,
		promoRepo:      promoRepo,
		userRepo:       userRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *redemptionService) Redeem(ctx context.Context, userID, promoCodeID primitive.ObjectID) (*models.RedeemResponse, error) {
	result, err := s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		user, err := s.userRepo.GetByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, &NotFoundError{Resource: "user"}
			}
			return nil, err
		}

		promo, err := s.promoRepo.GetByID(txCtx, promoCodeID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, &NotFoundError{Resource: "promo code"}
			}
			return nil, err
		}

		if !promo.IsActive {
			return nil, &StateError{Message: "this promo code is not active"}
		}

		if user.Points < promo.CostPoints {
			return nil, &InsufficientBalanceError{Required: promo.CostPoints, Available: user.Points}
		}

		// Pre-check is an optimization for a friendly error; the partial
		// unique index on the insert below is the authoritative guard.
		exists, err := s.redemptionRepo.HasActiveOrUsed(txCtx, userID, promoCodeID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &ConflictError{Message: "promo code already redeemed"}
		}

		now := s.now()
		redemption := &models.Redemption{
			UserID:         userID,
			PromoCodeID:    promoCodeID,
			Status:         models.RedemptionStatusActive,
			RedeemedAt:     now,
			ExpirationDate: now.AddDate(0, 0, promo.ExpirationDays),
			PromoDetails: models.PromoDetails{
				Name:        promo.Name,
				Description: promo.Description,
				Icon:        promo.Icon,
				PointsCost:  promo.CostPoints,
				Locations:   promo.Locations,
				StaticCode:  promo.StaticCode,
			},
		}

		for attempt := 0; attempt < uniqueCodeAttempts; attempt++ {
			redemption.Code = uniqueRedemptionCode(promo.StaticCode)
			err = s.redemptionRepo.Create(txCtx, redemption)
			if err == nil {
				break
			}
			if !errors.Is(err, interfaces.ErrDuplicate) {
				return nil, err
			}
			// Distinguish a concurrent redemption from the (rare) code
			// collision: the former is terminal for this call.
			exists, checkErr := s.redemptionRepo.HasActiveOrUsed(txCtx, userID, promoCodeID)
			if checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, &ConflictError{Message: "promo code already redeemed"}
			}
		}
		if err != nil {
			return nil, &ConflictError{Message: "promo code already redeemed"}
		}

		// The debit filter re-checks the balance, so a concurrent spend
		// between the read above and this write aborts the transaction.
		remaining, err := s.userRepo.DebitPoints(txCtx, userID, promo.CostPoints)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, &InsufficientBalanceError{Required: promo.CostPoints, Available: user.Points}
			}
			return nil, err
		}

		return &models.RedeemResponse{Redemption: redemption, RemainingPoints: remaining}, nil
	})
	if err != nil {
		return nil, err
	}

	response := result.(*models.RedeemResponse)
	s.logger.WithUserID(userID).
		WithField("promo_code_id", promoCodeID.Hex()).
		WithField("redemption_id", response.Redemption.ID.Hex()).
		WithField("remaining_points", response.RemainingPoints).
		Info("Promo code redeemed")

	return response, nil
}

func (s *redemptionService) MarkUsed(ctx context.Context, id primitive.ObjectID, location string) (*models.Redemption, error) {
	redemption, justExpired, err := s.getWithLazyExpiration(ctx, id)
	if err != nil {
		return nil, err
	}
	if justExpired {
		return nil, &ExpiredError{Code: redemption.Code}
	}
	if redemption.Status != models.RedemptionStatusActive {
		return nil, &StateError{Status: redemption.Status}
	}

	now := s.now()
	applied, err := s.redemptionRepo.MarkUsed(ctx, id, location, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race against another transition; report what won.
		return nil, s.observedStateError(ctx, id)
	}

	redemption.Status = models.RedemptionStatusUsed
	redemption.UsedAt = &now
	redemption.UsedLocation = location

	s.logger.WithField("redemption_id", id.Hex()).
		WithField("used_location", location).
		Info("Redemption marked as used")

	return redemption, nil
}

func (s *redemptionService) Revoke(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	redemption, justExpired, err := s.getWithLazyExpiration(ctx, id)
	if err != nil {
		return nil, err
	}
	if justExpired {
		return nil, &ExpiredError{Code: redemption.Code}
	}
	if redemption.Status != models.RedemptionStatusActive {
		return nil, &StateError{Status: redemption.Status}
	}

	applied, err := s.redemptionRepo.MarkRevoked(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.observedStateError(ctx, id)
	}

	redemption.Status = models.RedemptionStatusRevoked

	s.logger.WithField("redemption_id", id.Hex()).Info("Redemption revoked")

	return redemption, nil
}

func (s *redemptionService) Get(ctx context.Context, id primitive.ObjectID) (*models.Redemption, error) {
	redemption, _, err := s.getWithLazyExpiration(ctx, id)
	return redemption, err
}

func (s *redemptionService) ListForUser(ctx context.Context, userID primitive.ObjectID, status *models.RedemptionStatus) ([]*models.Redemption, error) {
	redemptions, err := s.redemptionRepo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, redemption := range redemptions {
		if redemption.IsExpired(now) {
			if _, err := s.redemptionRepo.MarkExpired(ctx, redemption.ID); err != nil {
				return nil, err
			}
			redemption.Status = models.RedemptionStatusExpired
		}
	}

	return redemptions, nil
}

// getWithLazyExpiration loads a redemption and, when its window has passed,
// persists the EXPIRED transition before returning it. The second result
// reports whether this call performed the transition, which is what
// distinguishes ExpiredError from a plain StateError on an already-expired
// record.
func (s *redemptionService) getWithLazyExpiration(ctx context.Context, id primitive.ObjectID) (*models.Redemption, bool, error) {
	redemption, err := s.redemptionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, &NotFoundError{Resource: "redemption"}
		}
		return nil, false, err
	}

	if redemption.IsExpired(s.now()) {
		if _, err := s.redemptionRepo.MarkExpired(ctx, redemption.ID); err != nil {
			return nil, false, err
		}
		redemption.Status = models.RedemptionStatusExpired
		return redemption, true, nil
	}

	return redemption, false, nil
}

func (s *redemptionService) observedStateError(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.redemptionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &NotFoundError{Resource: "redemption"}
		}
		return err
	}
	if current.Status == models.RedemptionStatusExpired {
		return &ExpiredError{Code: current.Code}
	}
	return &StateError{Status: current.Status}
}

// uniqueRedemptionCode derives the per-redemption code from the promo's
// static code plus a random suffix, e.g. ECO-1234-X7K2QD.
func uniqueRedemptionCode(staticCode string) string {
	return staticCode + "-" + strings.ToUpper(utils.GenerateRandomString(utils.RedemptionCodeSuffixLength))
}
