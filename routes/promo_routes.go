package routes

import (
	handlers "greencycle/internal/handlers/shared"
	"greencycle/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPromoRoutes sets up routes for the promo catalog
func SetupPromoRoutes(r *gin.RouterGroup, promoHandler *handlers.PromoHandler, jwtSecret string) {
	promos := r.Group("/promos")
	{
		// Public catalog reads
		promos.GET("", promoHandler.ListPromoCodes)

		// Catalog filtered for the authenticated user. Registered before
		// GET /:id so gin does not treat "available" as an ID.
		promos.GET("/available", middleware.AuthRequired(jwtSecret), promoHandler.ListAvailablePromoCodes)

		promos.GET("/:id", promoHandler.GetPromoCode)
	}

	// Admin catalog management
	admin := r.Group("/promos")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("", promoHandler.CreatePromoCode)
		admin.PUT("/:id", promoHandler.UpdatePromoCode)
		admin.DELETE("/:id", promoHandler.DeletePromoCode)
	}
}
