package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPromoIcon           = "gift-outline"
	DefaultPromoExpirationDays = 30
)

type PromoCode struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Icon           string             `json:"icon" bson:"icon" default:"gift-outline"`
	CostPoints     int64              `json:"cost_points" bson:"cost_points" validate:"min=0"`
	Description    string             `json:"description" bson:"description" validate:"required"`
	ExpirationDays int                `json:"expiration_days" bson:"expiration_days" validate:"min=1"`
	Locations      []string           `json:"locations" bson:"locations"`
	StaticCode     string             `json:"static_code" bson:"static_code"`
	IsActive       bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// AvailablePromoCode is a catalog entry annotated for a specific user.
type AvailablePromoCode struct {
	PromoCode
	CanRedeem bool `json:"can_redeem"`
}

type CreatePromoCodeRequest struct {
	Name           string   `json:"name" validate:"required"`
	Icon           string   `json:"icon"`
	CostPoints     int64    `json:"cost_points" validate:"min=0"`
	Description    string   `json:"description" validate:"required"`
	ExpirationDays int      `json:"expiration_days" validate:"omitempty,min=1"`
	Locations      []string `json:"locations"`
	StaticCode     string   `json:"static_code"`
}

// UpdatePromoCodeRequest carries a partial update; nil fields are left
// untouched. Existing redemptions keep their snapshot either way.
type UpdatePromoCodeRequest struct {
	Name           *string   `json:"name"`
	Icon           *string   `json:"icon"`
	CostPoints     *int64    `json:"cost_points" validate:"omitempty,min=0"`
	Description    *string   `json:"description"`
	ExpirationDays *int      `json:"expiration_days" validate:"omitempty,min=1"`
	Locations      *[]string `json:"locations"`
	IsActive       *bool     `json:"is_active"`
}

type AvailablePromoCodesResponse struct {
	UserPoints int64                 `json:"user_points"`
	PromoCodes []*AvailablePromoCode `json:"promo_codes"`
}
