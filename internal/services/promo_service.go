package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"greencycle/internal/models"
	"greencycle/internal/repositories/interfaces"
	"greencycle/internal/utils"
	"greencycle/internal/validators"
	"greencycle/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// staticCodeAttempts bounds the retry loop when a generated static code
// collides with an existing one.
const staticCodeAttempts = 5

type PromoService interface {
	Create(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error)

	// Delete removes a promo code outright when nothing references it, and
	// deactivates it otherwise. The returned bool reports the soft-delete case.
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)

	ListActive(ctx context.Context) ([]*models.PromoCode, error)
	ListAvailableFor(ctx context.Context, userID primitive.ObjectID) (*models.AvailablePromoCodesResponse, error)
}

type promoService struct {
	promoRepo      interfaces.PromoCodeRepository
	redemptionRepo interfaces.RedemptionRepository
	userRepo       interfaces.UserRepository
	logger         *logger.Logger
}

func NewPromoService(
	promoRepo interfaces.PromoCodeRepository,
	redemptionRepo interfaces.RedemptionRepository,
	userRepo interfaces.UserRepository,
	logger *logger.Logger,
) PromoService {
	return &promoService{
		promoRepo:      promoRepo,
		redemptionRepo: redemptionRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *promoService) Create(ctx context.Context, req *models.CreatePromoCodeRequest) (*models.PromoCode, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Message: errs.Error(), Fields: errs.FieldMap()}
	}

	promo := &models.PromoCode{
		Name:           strings.TrimSpace(req.Name),
		Icon:           req.Icon,
		CostPoints:     req.CostPoints,
		Description:    strings.TrimSpace(req.Description),
		ExpirationDays: req.ExpirationDays,
		Locations:      req.Locations,
		StaticCode:     strings.ToUpper(strings.TrimSpace(req.StaticCode)),
		IsActive:       true,
	}
	if promo.Name == "" || promo.Description == "" {
		return nil, &ValidationError{Message: "name and description are required"}
	}
	if promo.Icon == "" {
		promo.Icon = models.DefaultPromoIcon
	}
	if promo.ExpirationDays == 0 {
		promo.ExpirationDays = models.DefaultPromoExpirationDays
	}

	// A supplied static code is used as-is; a collision is the caller's to
	// resolve. A generated one retries with a fresh suffix.
	if promo.StaticCode != "" {
		if err := s.promoRepo.Create(ctx, promo); err != nil {
			if errors.Is(err, interfaces.ErrDuplicate) {
				return nil, &ConflictError{Message: "static code is already in use"}
			}
			return nil, err
		}
	} else {
		prefix := staticCodePrefix(promo.Name)
		var err error
		for attempt := 0; attempt < staticCodeAttempts; attempt++ {
			promo.StaticCode = prefix + "-" + utils.GenerateRandomNumericString(utils.StaticCodeSuffixLength)
			err = s.promoRepo.Create(ctx, promo)
			if err == nil || !errors.Is(err, interfaces.ErrDuplicate) {
				break
			}
		}
		if err != nil {
			if errors.Is(err, interfaces.ErrDuplicate) {
				return nil, &ConflictError{Message: "could not generate a unique static code"}
			}
			return nil, err
		}
	}

	s.logger.WithField("promo_code_id", promo.ID.Hex()).
		WithField("static_code", promo.StaticCode).
		Info("Promo code created")

	return promo, nil
}

func (s *promoService) Get(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, &NotFoundError{Resource: "promo code"}
		}
		return nil, err
	}
	return promo, nil
}

func (s *promoService) Update(ctx context.Context, id primitive.ObjectID, req *models.UpdatePromoCodeRequest) (*models.PromoCode, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{Message: errs.Error(), Fields: errs.FieldMap()}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, &ValidationError{Message: "name cannot be empty"}
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.CostPoints != nil {
		if *req.CostPoints < 0 {
			return nil, &ValidationError{Message: "cost_points cannot be negative"}
		}
		updates["cost_points"] = *req.CostPoints
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, &ValidationError{Message: "description cannot be empty"}
		}
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ExpirationDays != nil {
		if *req.ExpirationDays < 1 {
			return nil, &ValidationError{Message: "expiration_days must be positive"}
		}
		updates["expiration_days"] = *req.ExpirationDays
	}
	if req.Locations != nil {
		updates["locations"] = *req.Locations
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	if err := s.promoRepo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, &NotFoundError{Resource: "promo code"}
		}
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *promoService) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}

	// Redemptions keep a snapshot of the promo code, so a referenced code is
	// only ever deactivated, never removed.
	referenced, err := s.redemptionRepo.ExistsForPromoCode(ctx, id)
	if err != nil {
		return false, err
	}

	if referenced {
		if err := s.promoRepo.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
			return false, err
		}
		s.logger.WithField("promo_code_id", id.Hex()).Info("Promo code deactivated, redemptions exist")
		return true, nil
	}

	if err := s.promoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, &NotFoundError{Resource: "promo code"}
		}
		return false, err
	}

	s.logger.WithField("promo_code_id", id.Hex()).Info("Promo code deleted")
	return false, nil
}

func (s *promoService) ListActive(ctx context.Context) ([]*models.PromoCode, error) {
	return s.promoRepo.ListActive(ctx)
}

func (s *promoService) ListAvailableFor(ctx context.Context, userID primitive.ObjectID) (*models.AvailablePromoCodesResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user"}
		}
		return nil, err
	}

	promos, err := s.promoRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	redeemed, err := s.redemptionRepo.RedeemedPromoCodeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	redeemedSet := make(map[primitive.ObjectID]struct{}, len(redeemed))
	for _, id := range redeemed {
		redeemedSet[id] = struct{}{}
	}

	// can_redeem is a hint only; Redeem re-validates inside its transaction.
	available := make([]*models.AvailablePromoCode, 0, len(promos))
	for _, promo := range promos {
		if _, ok := redeemedSet[promo.ID]; ok {
			continue
		}
		available = append(available, &models.AvailablePromoCode{
			PromoCode: *promo,
			CanRedeem: user.Points >= promo.CostPoints,
		})
	}

	return &models.AvailablePromoCodesResponse{
		UserPoints: user.Points,
		PromoCodes: available,
	}, nil
}

// staticCodePrefix derives the generated-code prefix from the promo name:
// first three letters, uppercased, padded with X for very short names.
func staticCodePrefix(name string) string {
	var letters []rune
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}
