package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
)

// RegisterWebhookRoutes sets up payment processor webhook routes. These are
// authenticated by shared secret header, not JWT.
func RegisterWebhookRoutes(e *echo.Echo, orderController *controllers.OrderController) {
	e.POST("/api/webhooks/orders/completed", orderController.OrderCompleted)
}
