package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type NoteHandler struct {
	service noteApplicationService
}

type noteApplicationService interface {
	Get(ctx context.Context, actor services.Actor, sessionID int64) (*models.SessionNote, error)
	Save(ctx context.Context, actor services.Actor, sessionID int64, content string) (*models.SessionNote, error)
}

func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

type saveNoteRequest struct {
	Content *string `json:"content" validate:"required,max=100000"`
}

func (h *NoteHandler) GetNote(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	note, err := h.service.Get(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch notes")
	}
	return c.JSON(fiber.Map{"note": note})
}

func (h *NoteHandler) SaveNote(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req saveNoteRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	note, err := h.service.Save(c.UserContext(), actor, sessionID, *req.Content)
	if err != nil {
		return mapServiceError(c, err, "Failed to save notes")
	}
	return c.JSON(fiber.Map{"note": note})
}
