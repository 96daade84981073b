package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
	"github.com/pawtraits-dev/pawtraits-sub013/websocket"
)

// RegisterAdminRoutes sets up the admin live ledger feed and pre-registration
// batch issuance.
func RegisterAdminRoutes(e *echo.Echo, hub *websocket.Hub, issuanceController *controllers.IssuanceController) {
	r := e.Group("/api/admin")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.RequireUserType("admin"))

	r.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub)
	})

	r.POST("/preregistrations", issuanceController.IssuePreregistrationBatch)
}
