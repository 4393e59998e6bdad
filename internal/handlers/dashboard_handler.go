package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type DashboardHandler struct {
	service dashboardApplicationService
}

type dashboardApplicationService interface {
	Summary(ctx context.Context, actor services.Actor) (*models.Dashboard, error)
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	dashboard, err := h.service.Summary(c.UserContext(), actor)
	if err != nil {
		return mapServiceError(c, err, "Failed to load dashboard")
	}
	return c.JSON(dashboard)
}
