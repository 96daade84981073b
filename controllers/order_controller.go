// controllers/order_controller.go
package controllers

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// OrderController receives payment processor webhooks.
type OrderController struct {
	Ledger *services.LedgerService
}

// NewOrderController creates a new order controller
func NewOrderController(ledger *services.LedgerService) *OrderController {
	return &OrderController{Ledger: ledger}
}

// OrderCompleted handles POST /api/webhooks/orders/completed. The processor
// retries deliveries, so the same order may arrive more than once; the first
// delivery creates the ledger entry and every retry answers 409.
func (oc *OrderController) OrderCompleted(c echo.Context) error {
	if !validWebhookSignature(c) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid webhook signature",
		})
	}

	var payload models.OrderCompletedPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "order_number, customer_email and subtotal_pence are required",
		})
	}

	order, entry, err := oc.Ledger.CompleteOrder(c.Request().Context(), payload)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			log.Printf("Duplicate webhook for order %s ignored", payload.OrderNumber)
		}
		return errorResponse(c, err)
	}

	if entry == nil {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Order recorded; no attribution to reward",
			Data: map[string]interface{}{
				"order": order,
			},
		})
	}

	log.Printf("Order %s completed: %s entry of %d pence for %s %s",
		order.OrderNumber, entry.Kind, entry.AmountPence, entry.RecipientType, entry.RecipientID.Hex())

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order recorded and ledger entry created",
		Data: map[string]interface{}{
			"order": order,
			"entry": entry,
		},
	})
}

// validWebhookSignature compares the shared secret header in constant time.
func validWebhookSignature(c echo.Context) bool {
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		log.Printf("WARNING: WEBHOOK_SECRET is not set; rejecting webhook")
		return false
	}
	provided := c.Request().Header.Get("X-Webhook-Secret")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1
}
