// controllers/referral_controller.go
package controllers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
	"github.com/pawtraits-dev/pawtraits-sub013/utils"
)

// ReferralController handles code verification and attribution for all
// referral kinds.
type ReferralController struct {
	Resolver *services.Resolver
}

// NewReferralController creates a new referral controller
func NewReferralController(resolver *services.Resolver) *ReferralController {
	return &ReferralController{Resolver: resolver}
}

// VerifyCode resolves a referral code and records the scan. GET
// /referrals/verify/:code.
func (rc *ReferralController) VerifyCode(c echo.Context) error {
	code := c.Param("code")

	candidate, err := rc.Resolver.Verify(c.Request().Context(), code)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral code verified",
		Data:    candidate,
	})
}

// ApplyCode resolves a code and writes the attribution onto the customer.
// POST /referrals/verify/:code. A customer who already has an attribution
// keeps it; the response still carries the resolution for display.
func (rc *ReferralController) ApplyCode(c echo.Context) error {
	code := c.Param("code")

	var req models.ApplyReferralRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "customer_id is required",
		})
	}

	candidate, applied, err := rc.Resolver.Apply(c.Request().Context(), code, req.CustomerID)
	if err != nil {
		return errorResponse(c, err)
	}

	if !applied {
		log.Printf("Customer %s already attributed; code %s ignored", req.CustomerID, candidate.Code)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral applied",
		Data: map[string]interface{}{
			"success":    true,
			"applied":    applied,
			"referral":   candidate,
			"customerId": req.CustomerID,
		},
	})
}

// GetReferralQRCode returns a QR code image for a referral code. GET
// /referrals/qrcode/:code.
func (rc *ReferralController) GetReferralQRCode(c echo.Context) error {
	code, err := utils.ValidateCode(c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid referral code",
		})
	}

	qrCode, err := generateReferralQRCode(code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated successfully",
		Data: map[string]interface{}{
			"qrCode": qrCode,
			"code":   code,
		},
	})
}

// generateReferralQRCode creates a QR code image linking to the signup page
// with the code pre-filled.
func generateReferralQRCode(code string) (string, error) {
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "https://pawtraits.dev"
	}
	content := fmt.Sprintf("%s/signup?ref=%s", siteURL, code)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = png.Encode(&buf, qrCode)
	if err != nil {
		return "", err
	}

	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
