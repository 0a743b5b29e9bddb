package handlers

import (
	"greencycle/internal/services"
	"greencycle/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	pointsService services.PointsService
	audit         services.AuditRecorder
}

func NewUserHandler(pointsService services.PointsService, audit services.AuditRecorder) *UserHandler {
	return &UserHandler{
		pointsService: pointsService,
		audit:         audit,
	}
}

// GetPoints returns the caller's current points balance
func (h *UserHandler) GetPoints(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	points, err := h.pointsService.Balance(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Points retrieved successfully", gin.H{"points": points})
}

// GrantPoints credits points to a user's balance (admin)
func (h *UserHandler) GrantPoints(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	var request struct {
		Amount int64  `json:"amount" binding:"required,min=1"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	balance, err := h.pointsService.Grant(c.Request.Context(), userID, request.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if adminID, ok := adminUserID(c); ok {
		h.audit.RecordPointsChange(c.Request.Context(), userID, request.Amount, request.Reason, &adminID)
	}

	utils.SuccessResponse(c, "Points granted successfully", gin.H{"points": balance})
}
