package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username" validate:"required,min=3,max=30"`
	Email     string             `json:"email" bson:"email" validate:"required,email"`
	FirstName string             `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName  string             `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Phone     string             `json:"phone" bson:"phone" validate:"required"`
	Password  string             `json:"-" bson:"password"`
	IsAdmin   bool               `json:"is_admin" bson:"is_admin" default:"false"`
	Points    int64              `json:"points" bson:"points" default:"0"`
	Status    UserStatus         `json:"status" bson:"status" default:"active"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
