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

const (
	minRating = 1
	maxRating = 5
)

type SubmitReviewInput struct {
	TutorID   int64
	SessionID int64
	Rating    int
	Comment   string
}

type ReviewResult struct {
	Review      *models.Review `json:"review"`
	Rating      float64        `json:"tutor_rating"`
	ReviewCount int            `json:"tutor_review_count"`
}

type ReviewService struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewReviewService(db *pgxpool.Pool, timeout time.Duration) *ReviewService {
	return &ReviewService{db: db, timeout: timeout}
}

// Submit records a student's review of a completed session and folds the
// rating into the tutor's aggregate in the same transaction.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, input SubmitReviewInput) (*ReviewResult, error) {
	if !actor.IsStudent() {
		return nil, ErrForbidden
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, minRating, maxRating)
	}
	if input.TutorID <= 0 || input.SessionID <= 0 {
		return nil, ErrInvalidInput
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*ReviewResult, error) {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		session, err := repository.NewSessionRepository(tx).GetByID(ctx, input.SessionID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !reviewable(session, actor.UserID, input.TutorID) {
			return nil, ErrForbidden
		}

		review, err := repository.NewReviewRepository(tx).Create(ctx, repository.CreateReviewInput{
			StudentID: actor.UserID,
			TutorID:   input.TutorID,
			SessionID: input.SessionID,
			Rating:    input.Rating,
			Comment:   strings.TrimSpace(input.Comment),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicateReview
			}
			return nil, err
		}

		profile, err := repository.NewTutorProfileRepository(tx).ApplyReview(ctx, input.TutorID, input.Rating)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		return &ReviewResult{
			Review:      review,
			Rating:      profile.Rating,
			ReviewCount: profile.ReviewCount,
		}, nil
	})
}

func (s *ReviewService) List(ctx context.Context, tutorID int64) ([]models.Review, error) {
	if tutorID <= 0 {
		return nil, ErrInvalidInput
	}
	return runBounded(ctx, s.timeout, func(ctx context.Context) ([]models.Review, error) {
		return repository.NewReviewRepository(s.db).ListByTutorID(ctx, tutorID)
	})
}

func reviewable(session *models.Session, studentID, tutorID int64) bool {
	return session != nil &&
		session.Status == models.SessionCompleted &&
		session.StudentID == studentID &&
		session.TutorID == tutorID
}
