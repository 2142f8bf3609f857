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

const maxImageSize = 10 * 1024 * 1024 // 10MB

type WardrobeHandler struct {
	service   *service.WardrobeService
	validator *validator.Validate
}

func NewWardrobeHandler(svc *service.WardrobeService, v *validator.Validate) *WardrobeHandler {
	return &WardrobeHandler{
		service:   svc,
		validator: v,
	}
}

// List handles GET /api/wardrobe
// @Summary      List wardrobe
// @Description  List owned garments, optionally filtered by category
// @Tags         Wardrobe
// @Produce      json
// @Param        category query string false "Category filter" Enums(tops, bottoms, shoes, outerwear, accessories)
// @Success      200 {object} model.WardrobeListResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe [get]
func (h *WardrobeHandler) List(c *fiber.Ctx) error {
	category := model.Category(c.Query("category"))
	if category != "" && !model.IsValidCategory(category) {
		return response.ValidationError(c, "Unknown category", map[string]interface{}{
			"category": category,
		})
	}

	items, err := h.service.List(c.Context(), userID(c), category)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.WardrobeListResponse{
		Items: items,
		Total: len(items),
	})
}

// Add handles POST /api/wardrobe
// @Summary      Add wardrobe item
// @Description  Add a garment to the wardrobe
// @Tags         Wardrobe
// @Accept       json
// @Produce      json
// @Param        request body model.AddWardrobeItemRequest true "Item"
// @Success      201 {object} model.WardrobeItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe [post]
func (h *WardrobeHandler) Add(c *fiber.Ctx) error {
	var req model.AddWardrobeItemRequest
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

// Update handles PUT /api/wardrobe/:id
// @Summary      Update wardrobe item
// @Description  Edit an item's colors, description, or tags; name and category are fixed
// @Tags         Wardrobe
// @Accept       json
// @Produce      json
// @Param        id path string true "Item ID"
// @Param        request body model.UpdateWardrobeItemRequest true "Changes"
// @Success      200 {object} model.WardrobeItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe/{id} [put]
func (h *WardrobeHandler) Update(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return response.ValidationError(c, "Item ID is required", nil)
	}

	var req model.UpdateWardrobeItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	item, err := h.service.Update(c.Context(), userID(c), itemID, &req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, item)
}

// Remove handles DELETE /api/wardrobe/:id
// @Summary      Remove wardrobe item
// @Description  Remove a garment and its stored images
// @Tags         Wardrobe
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      204 "No Content"
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe/{id} [delete]
func (h *WardrobeHandler) Remove(c *fiber.Ctx) error {
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

// Wear handles POST /api/wardrobe/:id/wear
// @Summary      Record a wear
// @Description  Increment an item's wear count
// @Tags         Wardrobe
// @Produce      json
// @Param        id path string true "Item ID"
// @Success      200 {object} model.WardrobeItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe/{id}/wear [post]
func (h *WardrobeHandler) Wear(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return response.ValidationError(c, "Item ID is required", nil)
	}

	item, err := h.service.RecordWear(c.Context(), userID(c), itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, item)
}

// UploadImage handles POST /api/wardrobe/:id/image
// @Summary      Upload item photo
// @Description  Attach a photo to a wardrobe item
// @Tags         Wardrobe
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Item ID"
// @Param        file formData file   true "Image file (JPEG, PNG, WebP, HEIC; max 10MB)"
// @Success      200 {object} model.WardrobeItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/wardrobe/{id}/image [post]
func (h *WardrobeHandler) UploadImage(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if itemID == "" {
		return response.ValidationError(c, "Item ID is required", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxImageSize {
		return response.ValidationError(c, "File size exceeds 10MB limit", map[string]interface{}{
			"maxSize":  maxImageSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/heic": true,
	}
	if !validTypes[contentType] {
		return response.ValidationError(c, "Invalid file type. Supported: JPEG, PNG, WebP, HEIC", map[string]interface{}{
			"contentType": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	item, err := h.service.UploadImage(c.Context(), userID(c), itemID, contentType, f)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, item)
}
