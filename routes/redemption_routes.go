package routes

import (
	handlers "greencycle/internal/handlers/shared"
	"greencycle/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRedemptionRoutes sets up routes for the redemption ledger
func SetupRedemptionRoutes(r *gin.RouterGroup, redemptionHandler *handlers.RedemptionHandler, jwtSecret string) {
	redemptions := r.Group("/redemptions")
	redemptions.Use(middleware.AuthRequired(jwtSecret))
	{
		redemptions.POST("/redeem", redemptionHandler.Redeem)
		redemptions.GET("", redemptionHandler.ListRedemptions)
		redemptions.GET("/:id", redemptionHandler.GetRedemption)
		redemptions.PUT("/:id/use", redemptionHandler.MarkUsed)
	}

	admin := r.Group("/redemptions")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.PUT("/:id/revoke", redemptionHandler.Revoke)
	}
}
