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

type ProfileHandler struct {
	service   *service.ProfileService
	validator *validator.Validate
}

func NewProfileHandler(svc *service.ProfileService, v *validator.Validate) *ProfileHandler {
	return &ProfileHandler{
		service:   svc,
		validator: v,
	}
}

// Get handles GET /api/profile
// @Summary      Get profile
// @Description  Load the user's styling profile; a never-saved profile reads as empty
// @Tags         Profile
// @Produce      json
// @Success      200 {object} model.Profile
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	uid := userID(c)

	profile, err := h.service.Get(c.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same rule as generation: an absent profile is an empty one.
			return response.OK(c, model.Profile{UserID: uid})
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, profile)
}

// Update handles PUT /api/profile
// @Summary      Update profile
// @Description  Replace the user's styling profile fields
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        request body model.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} model.Profile
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/profile [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var req model.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	profile, err := h.service.Save(c.Context(), userID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, profile)
}
