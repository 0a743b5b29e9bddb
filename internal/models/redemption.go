package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedemptionStatus string

const (
	RedemptionStatusActive  RedemptionStatus = "ACTIVE"
	RedemptionStatusUsed    RedemptionStatus = "USED"
	RedemptionStatusExpired RedemptionStatus = "EXPIRED"
	RedemptionStatusRevoked RedemptionStatus = "REVOKED"
)

// PromoDetails is the snapshot of the promo code frozen into a redemption at
// redeem time, so later catalog edits never alter a user's history.
type PromoDetails struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Icon        string   `json:"icon" bson:"icon"`
	PointsCost  int64    `json:"points_cost" bson:"points_cost"`
	Locations   []string `json:"locations" bson:"locations"`
	StaticCode  string   `json:"static_code" bson:"static_code"`
}

type Redemption struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	PromoCodeID    primitive.ObjectID `json:"promo_code_id" bson:"promo_code_id" validate:"required"`
	Code           string             `json:"code" bson:"code" validate:"required"`
	Status         RedemptionStatus   `json:"status" bson:"status" default:"ACTIVE"`
	RedeemedAt     time.Time          `json:"redeemed_at" bson:"redeemed_at"`
	ExpirationDate time.Time          `json:"expiration_date" bson:"expiration_date" validate:"required"`
	UsedAt         *time.Time         `json:"used_at" bson:"used_at"`
	UsedLocation   string             `json:"used_location" bson:"used_location"`
	PromoDetails   PromoDetails       `json:"promo_details" bson:"promo_details"`
}

// IsExpired reports whether an ACTIVE redemption's validity window has passed
// at the given instant. Terminal states never expire; callers persist the
// EXPIRED transition the moment this returns true.
func (r *Redemption) IsExpired(now time.Time) bool {
	return r.Status == RedemptionStatusActive && now.After(r.ExpirationDate)
}

// IsTerminal reports whether no further transition may leave the current state.
func (r *Redemption) IsTerminal() bool {
	return r.Status != RedemptionStatusActive
}

type RedeemRequest struct {
	PromoCodeID string `json:"promo_code_id" validate:"required"`
}

type MarkUsedRequest struct {
	Location string `json:"location"`
}

// RedeemResponse is what a successful redeem returns to the client: the
// minted redemption plus the user's remaining balance.
type RedeemResponse struct {
	Redemption      *Redemption `json:"redemption"`
	RemainingPoints int64       `json:"remaining_points"`
}
