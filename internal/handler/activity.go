package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/styledna/api/internal/service"
	"github.com/styledna/api/pkg/response"
)

type ActivityHandler struct {
	service *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// Get handles GET /api/activity
// @Summary      Get activity log
// @Description  Read one day's activity log; defaults to today
// @Tags         Activity
// @Produce      json
// @Param        date query string false "Day (YYYY-MM-DD)"
// @Success      200 {object} model.ActivityDay
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/activity [get]
func (h *ActivityHandler) Get(c *fiber.Ctx) error {
	uid := userID(c)

	date := c.Query("date")
	if date == "" {
		day, err := h.service.Today(c.Context(), uid)
		if err != nil {
			return response.ServiceError(c, err.Error())
		}
		return response.OK(c, day)
	}

	day, err := h.service.Day(c.Context(), uid, date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			return response.ValidationError(c, err.Error(), nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, day)
}
