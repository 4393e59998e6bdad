package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type QuizHandler struct {
	service quizApplicationService
}

type quizApplicationService interface {
	Create(ctx context.Context, actor services.Actor, sessionID int64, input services.QuizInput) (*models.Quiz, error)
	Get(ctx context.Context, actor services.Actor, sessionID int64) (*models.Quiz, error)
	Update(ctx context.Context, actor services.Actor, sessionID int64, input services.QuizInput) (*models.Quiz, error)
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

type quizOptionRequest struct {
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

type quizQuestionRequest struct {
	Text    string              `json:"text" validate:"required,max=1000"`
	Type    string              `json:"type" validate:"omitempty,oneof=multiple-choice true-false short-answer"`
	Options []quizOptionRequest `json:"options" validate:"max=10,dive"`
}

type quizRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=2000"`
	Questions   []quizQuestionRequest `json:"questions" validate:"required,min=1,max=100,dive"`
	IsPublished bool                  `json:"is_published"`
}

func (r quizRequest) input() services.QuizInput {
	questions := make([]models.QuizQuestion, 0, len(r.Questions))
	for _, q := range r.Questions {
		options := make([]models.QuizOption, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, models.QuizOption{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		questions = append(questions, models.QuizQuestion{
			Text:    q.Text,
			Type:    models.QuestionType(q.Type),
			Options: options,
		})
	}
	return services.QuizInput{
		Title:       r.Title,
		Description: r.Description,
		Questions:   questions,
		IsPublished: r.IsPublished,
	}
}

func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	return h.write(c, fiber.StatusCreated, h.service.Create, "Failed to create quiz")
}

func (h *QuizHandler) UpdateQuiz(c *fiber.Ctx) error {
	return h.write(c, fiber.StatusOK, h.service.Update, "Failed to update quiz")
}

func (h *QuizHandler) write(
	c *fiber.Ctx,
	status int,
	apply func(context.Context, services.Actor, int64, services.QuizInput) (*models.Quiz, error),
	fallback string,
) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	if !actor.IsTutor() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the session tutor can edit its quiz"})
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req quizRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	quiz, err := apply(c.UserContext(), actor, sessionID, req.input())
	if err != nil {
		return mapServiceError(c, err, fallback)
	}
	return c.Status(status).JSON(fiber.Map{"quiz": quiz})
}

func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	quiz, err := h.service.Get(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch quiz")
	}
	return c.JSON(fiber.Map{"quiz": quiz})
}
