package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
)

// RegisterCustomerRoutes sets up customer credit and code issuance routes.
// Credit reads require a customer or admin token; manual adjustments are admin
// only.
func RegisterCustomerRoutes(e *echo.Echo, creditController *controllers.CreditController, issuanceController *controllers.IssuanceController) {
	r := e.Group("/api/customers")
	r.Use(middleware.JWTMiddleware())

	r.GET("/:id/credits", creditController.GetCredits, middleware.RequireUserType("customer", "admin"))
	r.POST("/:id/credits", creditController.AdjustCredits, middleware.RequireUserType("admin"))

	r.POST("/referrals", issuanceController.IssueCustomerReferral, middleware.RequireUserType("customer"))
	r.POST("/personal-code", issuanceController.EnsureCustomerPersonalCode, middleware.RequireUserType("customer"))
}
