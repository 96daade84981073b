package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
)

// RegisterGenerationRoutes sets up the portrait generation proxy route.
func RegisterGenerationRoutes(e *echo.Echo, generationController *controllers.GenerationController) {
	r := e.Group("/api/generations")
	r.Use(middleware.JWTMiddleware())

	r.POST("", generationController.Generate)
}
