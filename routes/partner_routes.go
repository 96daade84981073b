package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
)

// RegisterPartnerRoutes sets up partner commission and code issuance routes.
func RegisterPartnerRoutes(e *echo.Echo, commissionController *controllers.CommissionController, issuanceController *controllers.IssuanceController) {
	r := e.Group("/api/partners")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.RequireUserType("partner", "admin"))

	r.GET("/:id/commissions", commissionController.GetCommissions)
	r.PATCH("/commissions", commissionController.MarkPaid)

	r.POST("/referrals", issuanceController.IssuePartnerReferral)
	r.POST("/personal-code", issuanceController.EnsurePartnerPersonalCode)
}
