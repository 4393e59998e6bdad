package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

var errInvalidIdentity = errors.New("invalid identity")

// actorFromLocals rebuilds the caller set by middleware.AuthRequired.
func actorFromLocals(c *fiber.Ctx) (services.Actor, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return services.Actor{}, errInvalidIdentity
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return services.Actor{}, errInvalidIdentity
	}
	roleStr, ok := c.Locals("role").(string)
	if !ok {
		return services.Actor{}, errInvalidIdentity
	}
	role, err := models.ParseRole(roleStr)
	if err != nil {
		return services.Actor{}, errInvalidIdentity
	}
	return services.Actor{UserID: userID, Role: role}, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func parseIDParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
