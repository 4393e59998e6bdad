package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
	"github.com/learnroad/learnroad-api/internal/services"
)

// maxSessionFileSize caps a single attachment upload.
const maxSessionFileSize = 10 * 1024 * 1024

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	BookSession(ctx context.Context, actor services.Actor, input services.BookSessionInput) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, actor services.Actor, filter repository.SessionListFilter) ([]models.SessionDetail, error)
	GetSession(ctx context.Context, actor services.Actor, sessionID int64) (*models.SessionDetail, error)
	UpdateSession(ctx context.Context, actor services.Actor, sessionID int64, input services.UpdateSessionInput) (*models.SessionDetail, error)
	AttachFile(ctx context.Context, actor services.Actor, sessionID int64, input services.AttachFileInput) (*models.SessionFile, error)
	FileDownloadURL(ctx context.Context, actor services.Actor, sessionID int64, fileID int64) (string, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	TutorID   int64    `json:"tutor_id" validate:"required,gt=0"`
	Subject   string   `json:"subject" validate:"required,max=120"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string   `json:"end_time" validate:"required,datetime=15:04"`
	Price     *float64 `json:"price" validate:"omitempty,gte=0"`
	Notes     string   `json:"notes" validate:"max=2000"`
}

type updateSessionRequest struct {
	Status      *string `json:"status"`
	MeetingLink *string `json:"meeting_link" validate:"omitempty,url"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	if !actor.IsStudent() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can book sessions"})
	}

	var req bookSessionRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	detail, err := h.service.BookSession(c.UserContext(), actor, services.BookSessionInput{
		TutorID:   req.TutorID,
		Subject:   req.Subject,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Price:     req.Price,
		Notes:     req.Notes,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to book session")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": detail})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	sessions, err := h.service.ListSessions(c.UserContext(), actor, repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: strings.TrimSpace(c.Query("timeframe")),
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch sessions")
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch session")
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	session, err := h.service.UpdateSession(c.UserContext(), actor, sessionID, services.UpdateSessionInput{
		Status:      req.Status,
		MeetingLink: req.MeetingLink,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to update session")
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UploadFile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if fileHeader.Size > maxSessionFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file must be 10MB or smaller"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read uploaded file"})
	}
	defer file.Close()

	stored, err := h.service.AttachFile(c.UserContext(), actor, sessionID, services.AttachFileInput{
		File:     file,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to upload file")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"file": stored})
}

func (h *SessionHandler) DownloadFile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}
	fileID, ok := parseIDParam(c, "fileId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file id"})
	}

	url, err := h.service.FileDownloadURL(c.UserContext(), actor, sessionID, fileID)
	if err != nil {
		return mapServiceError(c, err, "Failed to create download link")
	}

	return c.JSON(fiber.Map{"download_url": url})
}
