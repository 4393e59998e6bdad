package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
)

type UpdateTutorProfileInput struct {
	Subjects      []string
	HourlyRate    float64
	Availability  []models.AvailabilitySlot
	Bio           string
	TeachingStyle string
}

type TutorService struct {
	profileRepo *repository.TutorProfileRepository
	timeout     time.Duration
}

func NewTutorService(db *pgxpool.Pool, timeout time.Duration) *TutorService {
	return &TutorService{
		profileRepo: repository.NewTutorProfileRepository(db),
		timeout:     timeout,
	}
}

func (s *TutorService) List(ctx context.Context, filter repository.TutorListFilter) ([]models.TutorListItem, int, error) {
	type page struct {
		items []models.TutorListItem
		total int
	}
	result, err := runBounded(ctx, s.timeout, func(ctx context.Context) (page, error) {
		items, total, err := s.profileRepo.List(ctx, filter)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return result.items, result.total, nil
}

func (s *TutorService) Detail(ctx context.Context, tutorID int64) (*models.TutorDetail, error) {
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.TutorDetail, error) {
		detail, err := s.profileRepo.GetDetail(ctx, tutorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}
		if detail.Subjects == nil {
			detail.Subjects = []string{}
		}
		if detail.Availability == nil {
			detail.Availability = []models.AvailabilitySlot{}
		}
		return detail, nil
	})
}

func (s *TutorService) GetOwnProfile(ctx context.Context, actor Actor) (*models.TutorProfile, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.TutorProfile, error) {
		profile, err := s.profileRepo.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}
		return profile, nil
	})
}

func (s *TutorService) UpdateOwnProfile(
	ctx context.Context,
	actor Actor,
	input UpdateTutorProfileInput,
) (*models.TutorProfile, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	if input.HourlyRate < 0 {
		return nil, fmt.Errorf("%w: hourly_rate must be 0 or greater", ErrInvalidInput)
	}
	if msg := ValidateAvailability(input.Availability); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}

	subjects := make([]string, 0, len(input.Subjects))
	for _, subject := range input.Subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			return nil, fmt.Errorf("%w: subjects must not contain empty values", ErrInvalidInput)
		}
		if !containsFold(subjects, subject) {
			subjects = append(subjects, subject)
		}
	}

	availability := make([]models.AvailabilitySlot, 0, len(input.Availability))
	for _, slot := range input.Availability {
		day, _ := ParseWeekday(slot.Day)
		availability = append(availability, models.AvailabilitySlot{
			Day:       day.String(),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.TutorProfile, error) {
		profile, err := s.profileRepo.Update(ctx, actor.UserID, repository.UpdateTutorProfileInput{
			Subjects:      subjects,
			HourlyRate:    roundCents(input.HourlyRate),
			Availability:  availability,
			Bio:           strings.TrimSpace(input.Bio),
			TeachingStyle: strings.TrimSpace(input.TeachingStyle),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}
		return profile, nil
	})
}
