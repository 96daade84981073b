// controllers/credit_controller.go
package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// CreditController serves customer store-credit reporting and manual admin
// adjustments.
type CreditController struct {
	Ledger *services.LedgerService
}

// NewCreditController creates a new credit controller
func NewCreditController(ledger *services.LedgerService) *CreditController {
	return &CreditController{Ledger: ledger}
}

// GetCredits returns a customer's credit summary, earned entries and
// redemption history. GET /api/customers/:id/credits.
func (cc *CreditController) GetCredits(c echo.Context) error {
	customerID := c.Param("id")

	// Customers may only read their own credits; admins may read anyone's.
	if middleware.ExtractUserType(c) != "admin" {
		callerID, err := middleware.ExtractUserID(c)
		if err != nil || callerID != customerID {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Insufficient permissions",
			})
		}
	}

	report, err := cc.Ledger.SummarizeCredits(c.Request().Context(), customerID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Credit summary retrieved successfully",
		Data:    report,
	})
}

// AdjustCredits applies a manual admin adjustment to a customer's balance.
// POST /api/customers/:id/credits. A change that would drive the balance
// negative is rejected and nothing is written.
func (cc *CreditController) AdjustCredits(c echo.Context) error {
	customerID := c.Param("id")

	var req models.CreditAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "amount and reason are required",
		})
	}

	adminID, _ := middleware.ExtractUserID(c)
	log.Printf("Admin %s adjusting credits for customer %s by %d pence: %s",
		adminID, customerID, req.Amount, req.Reason)

	entry, err := cc.Ledger.AdjustCredit(c.Request().Context(), customerID, req.Amount, req.Reason)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Credit balance adjusted",
		Data:    entry,
	})
}
