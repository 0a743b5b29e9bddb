package handlers

import (
	"greencycle/internal/models"
	"greencycle/internal/services"
	"greencycle/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedemptionHandler struct {
	redemptionService services.RedemptionService
	audit             services.AuditRecorder
}

func NewRedemptionHandler(redemptionService services.RedemptionService, audit services.AuditRecorder) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
		audit:             audit,
	}
}

// Redeem converts the caller's points into a single-use redemption code
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var request models.RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	promoCodeID, err := primitive.ObjectIDFromHex(request.PromoCodeID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid promo code ID")
		return
	}

	response, err := h.redemptionService.Redeem(c.Request.Context(), userID, promoCodeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Promo code redeemed successfully", response)
}

// ListRedemptions returns the caller's redemptions, newest first, with lazy
// expiration applied
func (h *RedemptionHandler) ListRedemptions(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	var status *models.RedemptionStatus
	if raw := c.Query("status"); raw != "" && raw != "ALL" {
		s := models.RedemptionStatus(raw)
		switch s {
		case models.RedemptionStatusActive, models.RedemptionStatusUsed,
			models.RedemptionStatusExpired, models.RedemptionStatusRevoked:
			status = &s
		default:
			utils.BadRequestResponse(c, "Invalid status filter")
			return
		}
	}

	redemptions, err := h.redemptionService.ListForUser(c.Request.Context(), userID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{Count: len(redemptions)}
	utils.SuccessResponseWithMeta(c, "Redemptions retrieved successfully", gin.H{"redemptions": redemptions}, meta)
}

// GetRedemption returns a single redemption with lazy expiration applied
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	redemptionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid redemption ID")
		return
	}

	redemption, err := h.redemptionService.Get(c.Request.Context(), redemptionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Redemption retrieved successfully", redemption)
}

// MarkUsed transitions a redemption to USED at a merchant location
func (h *RedemptionHandler) MarkUsed(c *gin.Context) {
	redemptionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid redemption ID")
		return
	}

	var request models.MarkUsedRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	redemption, err := h.redemptionService.MarkUsed(c.Request.Context(), redemptionID, request.Location)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Code marked as used", gin.H{
		"id":            redemption.ID,
		"code":          redemption.Code,
		"name":          redemption.PromoDetails.Name,
		"used_at":       redemption.UsedAt,
		"used_location": redemption.UsedLocation,
	})
}

// Revoke administratively invalidates an ACTIVE redemption (admin)
func (h *RedemptionHandler) Revoke(c *gin.Context) {
	redemptionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid redemption ID")
		return
	}

	redemption, err := h.redemptionService.Revoke(c.Request.Context(), redemptionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if adminID, ok := adminUserID(c); ok {
		h.audit.RecordAction(c.Request.Context(), models.AuditActionRevoke, "redemption", redemption.ID.Hex(), &adminID, nil)
	}

	utils.SuccessResponse(c, "Redemption revoked", redemption)
}
