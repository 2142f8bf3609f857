package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/middleware"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/internal/store"
	"github.com/styledna/api/pkg/response"
)

type OutfitHandler struct {
	service   *service.OutfitService
	validator *validator.Validate
}

func NewOutfitHandler(svc *service.OutfitService, v *validator.Validate) *OutfitHandler {
	return &OutfitHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/outfits/generate
// @Summary      Generate outfit
// @Description  Draft an outfit from the user's wardrobe using the stylist AI
// @Tags         Outfits
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateOutfitRequest true "Generate request"
// @Success      200 {object} model.Outfit
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/outfits/generate [post]
func (h *OutfitHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateOutfitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), userID(c), &req, model.OutfitSourceWeb)
	if err != nil {
		if errors.Is(err, service.ErrProvider) {
			return response.ProviderError(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// List handles GET /api/outfits
// @Summary      List outfits
// @Description  List the user's saved outfits, newest first
// @Tags         Outfits
// @Produce      json
// @Success      200 {object} model.OutfitListResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/outfits [get]
func (h *OutfitHandler) List(c *fiber.Ctx) error {
	outfits, err := h.service.List(c.Context(), userID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.OutfitListResponse{
		Outfits: outfits,
		Total:   len(outfits),
	})
}

// Get handles GET /api/outfits/:id
// @Summary      Get outfit
// @Description  Load one saved outfit by ID
// @Tags         Outfits
// @Produce      json
// @Param        id path string true "Outfit ID"
// @Success      200 {object} model.Outfit
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/outfits/{id} [get]
func (h *OutfitHandler) Get(c *fiber.Ctx) error {
	outfitID := c.Params("id")
	if outfitID == "" {
		return response.ValidationError(c, "Outfit ID is required", nil)
	}

	outfit, err := h.service.Get(c.Context(), userID(c), outfitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Outfit not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, outfit)
}

// Dislike handles POST /api/outfits/:id/dislike
// @Summary      Dislike outfit
// @Description  Record negative feedback on an outfit; the outfit is kept
// @Tags         Outfits
// @Accept       json
// @Produce      json
// @Param        id path string true "Outfit ID"
// @Param        request body model.DislikeOutfitRequest false "Dislike reason"
// @Success      200 {object} model.Outfit
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/outfits/{id}/dislike [post]
func (h *OutfitHandler) Dislike(c *fiber.Ctx) error {
	outfitID := c.Params("id")
	if outfitID == "" {
		return response.ValidationError(c, "Outfit ID is required", nil)
	}

	// Body is optional; an empty dislike still counts.
	var req model.DislikeOutfitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
		if err := h.validator.Struct(&req); err != nil {
			return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
		}
	}

	outfit, err := h.service.Dislike(c.Context(), userID(c), outfitID, req.Reason)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Outfit not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, outfit)
}

// userID extracts the authenticated user from context locals.
func userID(c *fiber.Ctx) string {
	return middleware.GetUserID(c)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
