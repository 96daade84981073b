package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/controllers"
)

// RegisterReferralRoutes sets up the public referral verification routes.
// Verification happens before signup, so no JWT is required here.
func RegisterReferralRoutes(e *echo.Echo, referralController *controllers.ReferralController) {
	e.GET("/referrals/verify/:code", referralController.VerifyCode)
	e.POST("/referrals/verify/:code", referralController.ApplyCode)
	e.GET("/referrals/qrcode/:code", referralController.GetReferralQRCode)
}
