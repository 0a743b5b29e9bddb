package handlers

import (
	"greencycle/internal/models"
	"greencycle/internal/services"
	"greencycle/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PromoHandler struct {
	promoService services.PromoService
	audit        services.AuditRecorder
}

func NewPromoHandler(promoService services.PromoService, audit services.AuditRecorder) *PromoHandler {
	return &PromoHandler{
		promoService: promoService,
		audit:        audit,
	}
}

// ListPromoCodes returns the active promo catalog
func (h *PromoHandler) ListPromoCodes(c *gin.Context) {
	promos, err := h.promoService.ListActive(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{Count: len(promos)}
	utils.SuccessResponseWithMeta(c, "Promo codes retrieved successfully", gin.H{"promo_codes": promos}, meta)
}

// GetPromoCode returns a single promo code
func (h *PromoHandler) GetPromoCode(c *gin.Context) {
	promoID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid promo code ID")
		return
	}

	promo, err := h.promoService.Get(c.Request.Context(), promoID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Promo code retrieved successfully", promo)
}

// ListAvailablePromoCodes returns the catalog filtered for the caller, with
// a can_redeem hint against their current balance
func (h *PromoHandler) ListAvailablePromoCodes(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	response, err := h.promoService.ListAvailableFor(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Available promo codes retrieved successfully", response)
}

// CreatePromoCode creates a new catalog entry (admin)
func (h *PromoHandler) CreatePromoCode(c *gin.Context) {
	var request models.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	promo, err := h.promoService.Create(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if adminID, ok := adminUserID(c); ok {
		h.audit.RecordAction(c.Request.Context(), models.AuditActionCreate, "promo_code", promo.ID.Hex(), &adminID, map[string]interface{}{
			"static_code": promo.StaticCode,
		})
	}

	utils.CreatedResponse(c, "Promo code created successfully", promo)
}

// UpdatePromoCode applies a partial update to a catalog entry (admin)
func (h *PromoHandler) UpdatePromoCode(c *gin.Context) {
	promoID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid promo code ID")
		return
	}

	var request models.UpdatePromoCodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	promo, err := h.promoService.Update(c.Request.Context(), promoID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if adminID, ok := adminUserID(c); ok {
		h.audit.RecordAction(c.Request.Context(), models.AuditActionUpdate, "promo_code", promo.ID.Hex(), &adminID, nil)
	}

	utils.SuccessResponse(c, "Promo code updated successfully", promo)
}

// DeletePromoCode removes a catalog entry, or deactivates it when
// redemptions reference it (admin)
func (h *PromoHandler) DeletePromoCode(c *gin.Context) {
	promoID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid promo code ID")
		return
	}

	deactivated, err := h.promoService.Delete(c.Request.Context(), promoID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if adminID, ok := adminUserID(c); ok {
		h.audit.RecordAction(c.Request.Context(), models.AuditActionDelete, "promo_code", promoID.Hex(), &adminID, map[string]interface{}{
			"deactivated": deactivated,
		})
	}

	if deactivated {
		utils.SuccessResponse(c, "Promo code deactivated as redemptions exist", gin.H{"deactivated": true})
		return
	}

	utils.SuccessResponse(c, "Promo code deleted successfully", gin.H{"deactivated": false})
}

// authenticatedUserID pulls the caller's ID from the auth middleware context,
// writing the error response itself when absent.
func authenticatedUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}

	return userObjectID, true
}

func adminUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := userID.(primitive.ObjectID)
	return id, ok
}
