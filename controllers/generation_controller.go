// controllers/generation_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// GenerationController exposes the portrait generation proxy.
type GenerationController struct {
	Generation *services.GenerationService
}

// NewGenerationController creates a new generation controller
func NewGenerationController(generation *services.GenerationService) *GenerationController {
	return &GenerationController{Generation: generation}
}

// Generate handles POST /api/generations. Quota is counted per caller IP per
// day before the inference API is invoked.
func (gc *GenerationController) Generate(c echo.Context) error {
	var req models.GenerationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "prompt is required",
		})
	}

	result, err := gc.Generation.Generate(c.Request().Context(), req, c.RealIP())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Portrait generated successfully",
		Data:    result,
	})
}
