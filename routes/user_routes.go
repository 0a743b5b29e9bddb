package routes

import (
	handlers "greencycle/internal/handlers/shared"
	"greencycle/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up routes for the points account
func SetupUserRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler, jwtSecret string) {
	users := r.Group("/users")
	users.Use(middleware.AuthRequired(jwtSecret))
	{
		users.GET("/points", userHandler.GetPoints)
	}

	admin := r.Group("/users")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/:id/points", userHandler.GrantPoints)
	}
}
