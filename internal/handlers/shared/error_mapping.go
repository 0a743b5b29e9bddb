package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"greencycle/internal/services"
	"greencycle/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates the service error taxonomy into the API
// envelope. Unknown errors become an opaque 500; internals never leak.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		if len(validationErr.Fields) > 0 {
			utils.ValidationErrorResponse(c, validationErr.Fields)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message)
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		utils.NotFoundResponse(c, notFoundErr.Resource)
		return
	}

	var expiredErr *services.ExpiredError
	if errors.As(err, &expiredErr) {
		utils.GoneResponse(c, "EXPIRED", expiredErr.Error())
		return
	}

	var stateErr *services.StateError
	if errors.As(err, &stateErr) {
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_STATE", stateErr.Error())
		return
	}

	var balanceErr *services.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		utils.ErrorResponseWithDetails(c, http.StatusPaymentRequired, "INSUFFICIENT_POINTS",
			balanceErr.Error(), map[string]string{
				"required":  fmt.Sprintf("%d", balanceErr.Required),
				"available": fmt.Sprintf("%d", balanceErr.Available),
			})
		return
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		utils.ConflictResponse(c, conflictErr.Message)
		return
	}

	utils.InternalServerErrorResponse(c)
}
