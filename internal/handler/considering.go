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

type ConsideringHandler struct {
	service   *service.ConsiderationService
	validator *validator.Validate
}

func NewConsideringHandler(svc *service.ConsiderationService, v *validator.Validate) *ConsideringHandler {
	return &ConsideringHandler{
		service:   svc,
		validator: v,
	}
}

// List handles GET /api/considering
// @Summary      List consideration items
// @Description  List pieces the user is thinking about buying
// @Tags         Considering
// @Produce      json
// @Success      200 {object} model.ConsiderationListResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/considering [get]
func (h *ConsideringHandler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.Context(), userID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.ConsiderationListResponse{
		Items: items,
		Total: len(items),
	})
}

// Add handles POST /api/considering
// @Summary      Track a prospective purchase
// @Description  Add a piece to the consideration list
// @Tags         Considering
// @Accept       json
// @Produce      json
// @Param        request body model.AddConsiderationItemRequest true "Item"
// @Success      201 {object} model.ConsiderationItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/considering [post]
func (h *ConsideringHandler) Add(c *fiber.Ctx) error {
	var req model.AddConsiderationItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	item, err := h.service.Add(c.Context(), userID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, item)
}

// Remove handles DELETE /api/considering/:id
// @Summary      Drop a consideration item
// @Description  Remove a piece from the consideration list
// @Tags         Considering
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      204 "No Content"
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/considering/{id} [delete]
func (h *ConsideringHandler) Remove(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return response.ValidationError(c, "Item ID is required", nil)
	}

	if err := h.service.Remove(c.Context(), userID(c), itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

// Promote handles POST /api/considering/:id/promote
// @Summary      Promote to wardrobe
// @Description  Move a purchased piece from the consideration list into the wardrobe
// @Tags         Considering
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      200 {object} model.WardrobeItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/considering/{id}/promote [post]
func (h *ConsideringHandler) Promote(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return response.ValidationError(c, "Item ID is required", nil)
	}

	item, err := h.service.Promote(c.Context(), userID(c), itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, item)
}
