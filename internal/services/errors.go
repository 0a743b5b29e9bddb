package services

import (
	"fmt"

	"greencycle/internal/models"
)

// Error kinds surfaced by the catalog and ledger. Handlers detect them with
// errors.As and map each kind to a stable HTTP status and code. None of them
// leaves persisted state dirty.

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an absent user, promo code or redemption.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// StateError reports an operation that is invalid for the record's current
// state, e.g. marking a non-ACTIVE redemption as used.
type StateError struct {
	Status  models.RedemptionStatus
	Message string
}

func (e *StateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("operation not allowed in state %s", e.Status)
}

// ExpiredError is raised when lazy expiration fires during the very call
// that wanted to use the redemption. The EXPIRED transition has already been
// persisted by the time this surfaces.
type ExpiredError struct {
	Code string
}

func (e *ExpiredError) Error() string {
	return "this code has expired"
}

// InsufficientBalanceError carries the required and available point amounts.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("not enough points: need %d but have %d", e.Required, e.Available)
}

// ConflictError reports a duplicate redemption attempt or a static code
// collision. Safe for the caller to retry.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
