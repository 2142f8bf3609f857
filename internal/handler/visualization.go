package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
	"github.com/styledna/api/pkg/response"
)

type VisualizationHandler struct {
	service   *service.VisualizationService
	validator *validator.Validate
}

func NewVisualizationHandler(svc *service.VisualizationService, v *validator.Validate) *VisualizationHandler {
	return &VisualizationHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/visualization/generate
// @Summary      Start outfit visualization
// @Description  Queue a visualization job, or answer from the outfit's cached image
// @Tags         Visualization
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateVisualizationRequest true "Visualization request"
// @Success      200 {object} model.EnqueueResponse "Cached image"
// @Success      202 {object} model.EnqueueResponse "Job queued"
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/visualization/generate [post]
func (h *VisualizationHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateVisualizationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartVisualization(c.Context(), userID(c), &req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Outfit not found")
		}
		if errors.Is(err, service.ErrMissingDescriptor) {
			return response.PreconditionFailed(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	if result.JobID == model.CachedJobID {
		return response.OK(c, result)
	}
	return response.Accepted(c, result)
}
