package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
	"github.com/learnroad/learnroad-api/internal/services"
)

type TutorHandler struct {
	service tutorApplicationService
}

type tutorApplicationService interface {
	List(ctx context.Context, filter repository.TutorListFilter) ([]models.TutorListItem, int, error)
	Detail(ctx context.Context, tutorID int64) (*models.TutorDetail, error)
	GetOwnProfile(ctx context.Context, actor services.Actor) (*models.TutorProfile, error)
	UpdateOwnProfile(ctx context.Context, actor services.Actor, input services.UpdateTutorProfileInput) (*models.TutorProfile, error)
}

func NewTutorHandler(service *services.TutorService) *TutorHandler {
	return &TutorHandler{service: service}
}

type availabilitySlotRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

type updateTutorProfileRequest struct {
	Subjects      []string                  `json:"subjects" validate:"max=20,dive,required,max=80"`
	HourlyRate    float64                   `json:"hourly_rate" validate:"gte=0"`
	Availability  []availabilitySlotRequest `json:"availability" validate:"max=50,dive"`
	Bio           string                    `json:"bio" validate:"max=4000"`
	TeachingStyle string                    `json:"teaching_style" validate:"max=2000"`
}

func (h *TutorHandler) ListTutors(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseOptionalFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxRate, err := parseOptionalFloat(c.Query("max_rate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_rate must be a valid non-negative number"})
	}

	tutors, total, err := h.service.List(c.UserContext(), repository.TutorListFilter{
		Subject:   strings.TrimSpace(c.Query("subject")),
		MinRating: minRating,
		MaxRate:   maxRate,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch tutors")
	}

	return c.JSON(fiber.Map{
		"tutors":     tutors,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *TutorHandler) GetTutor(c *fiber.Ctx) error {
	tutorID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	tutor, err := h.service.Detail(c.UserContext(), tutorID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch tutor")
	}
	return c.JSON(fiber.Map{"tutor": tutor})
}

func (h *TutorHandler) GetOwnProfile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.service.GetOwnProfile(c.UserContext(), actor)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch profile")
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *TutorHandler) UpdateOwnProfile(c *fiber.Ctx) error {
	actor, err := actorFromLocals(c)
	if err != nil {
		return unauthorized(c)
	}

	var req updateTutorProfileRequest
	if msg := bindJSON(c, &req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	availability := make([]models.AvailabilitySlot, 0, len(req.Availability))
	for _, slot := range req.Availability {
		availability = append(availability, models.AvailabilitySlot{
			Day:       slot.Day,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}

	profile, err := h.service.UpdateOwnProfile(c.UserContext(), actor, services.UpdateTutorProfileInput{
		Subjects:      req.Subjects,
		HourlyRate:    req.HourlyRate,
		Availability:  availability,
		Bio:           req.Bio,
		TeachingStyle: req.TeachingStyle,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to update profile")
	}
	return c.JSON(fiber.Map{"profile": profile})
}
