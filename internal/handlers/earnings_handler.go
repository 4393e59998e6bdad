package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type EarningsHandler struct {
	service earningsApplicationService
}

type earningsApplicationService interface {
	Summary(ctx context.Context, actor services.Actor) (*models.EarningsSummary, error)
	Balance(ctx context.Context, actor services.Actor) (models.Balance, error)
	Withdraw(ctx context.Context, actor services.Actor, amount float64) (*services.WithdrawResult, error)
}

func NewEarningsHandler(service *services.EarningsService) *EarningsHandler {
	return &EarningsHandler{service: service}
}

type withdrawRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (h *EarningsHandler) GetEarnings(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	summary, err := h.service.Summary(c.UserContext(), actor)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch earnings")
	}
	return c.JSON(summary)
}

func (h *EarningsHandler) GetBalance(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	balance, err := h.service.Balance(c.UserContext(), actor)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch balance")
	}
	return c.JSON(balance)
}

func (h *EarningsHandler) Withdraw(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	var req withdrawRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	result, err := h.service.Withdraw(c.UserContext(), actor, req.Amount)
	if err != nil {
		return mapServiceError(c, err, "Failed to process withdrawal")
	}

	return c.JSON(fiber.Map{
		"new_available_balance": result.Balance.AvailableBalance,
		"payment":               result.Payment,
	})
}
