// controllers/errors.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// errorResponse maps service errors onto distinct HTTP responses. The UI
// relies on "not found", "expired" and "system error" being three different
// answers, so the taxonomy is preserved all the way to the wire.
func errorResponse(c echo.Context, err error) error {
	var status int
	var message string

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, message = http.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrInvalidOrder):
		status, message = http.StatusBadRequest, "Order amount must be positive"
	case errors.Is(err, services.ErrInsufficientBalance):
		status, message = http.StatusBadRequest, "Adjustment would make the balance negative"
	case errors.Is(err, services.ErrForbidden):
		status, message = http.StatusForbidden, "You do not own one or more of these entries"
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, "Referral code not found. Please check the spelling and try again"
	case errors.Is(err, services.ErrRecipientNotFound):
		status, message = http.StatusNotFound, "Recipient account not found"
	case errors.Is(err, services.ErrConflict):
		status, message = http.StatusConflict, "This order has already been recorded"
	case errors.Is(err, services.ErrExpired):
		status, message = http.StatusGone, "This invite has lapsed. Please request a new one"
	case errors.Is(err, services.ErrQuotaExceeded):
		status, message = http.StatusTooManyRequests, "Daily generation limit reached. Try again tomorrow"
	case errors.Is(err, services.ErrUpstreamUnavailable):
		status, message = http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry later"
	default:
		status, message = http.StatusInternalServerError, "Something went wrong"
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}
