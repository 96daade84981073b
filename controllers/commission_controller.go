// controllers/commission_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// CommissionController serves partner commission reporting and payout status
// transitions.
type CommissionController struct {
	Ledger *services.LedgerService
}

// NewCommissionController creates a new commission controller
func NewCommissionController(ledger *services.LedgerService) *CommissionController {
	return &CommissionController{Ledger: ledger}
}

// GetCommissions returns the aggregated commission summary and itemized
// entries for a partner. GET /api/partners/:id/commissions?status=paid|unpaid.
func (cc *CommissionController) GetCommissions(c echo.Context) error {
	partnerID := c.Param("id")
	statusFilter := c.QueryParam("status")

	// Partners may only read their own commissions; admins may read anyone's.
	if middleware.ExtractUserType(c) != "admin" {
		callerID, err := middleware.ExtractUserID(c)
		if err != nil || callerID != partnerID {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Insufficient permissions",
			})
		}
	}

	report, err := cc.Ledger.SummarizeCommissions(c.Request().Context(), models.ReferrerPartner, partnerID, statusFilter)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission summary retrieved successfully",
		Data:    report,
	})
}

// MarkPaid transitions the calling partner's commission entries to paid.
// PATCH /api/partners/commissions. All order ids must belong to the caller.
func (cc *CommissionController) MarkPaid(c echo.Context) error {
	partnerID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "orderIds and action markPaid are required",
		})
	}

	updated, err := cc.Ledger.MarkPaid(c.Request().Context(), partnerID, req.OrderIDs)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions marked as paid",
		Data: map[string]interface{}{
			"updated": updated,
		},
	})
}
