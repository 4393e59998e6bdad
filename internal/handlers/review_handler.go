package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type ReviewHandler struct {
	service reviewApplicationService
}

type reviewApplicationService interface {
	Submit(ctx context.Context, actor services.Actor, input services.SubmitReviewInput) (*services.ReviewResult, error)
	List(ctx context.Context, tutorID int64) ([]models.Review, error)
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type submitReviewRequest struct {
	TutorID   int64  `json:"tutor_id" validate:"required,gt=0"`
	SessionID int64  `json:"session_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	var req submitReviewRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	result, err := h.service.Submit(c.UserContext(), actor, services.SubmitReviewInput{
		TutorID:   req.TutorID,
		SessionID: req.SessionID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to submit review")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	tutorID, err := strconv.ParseInt(c.Query("tutor_id"), 10, 64)
	if err != nil || tutorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tutor_id is required"})
	}

	reviews, err := h.service.List(c.UserContext(), tutorID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch reviews")
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}
