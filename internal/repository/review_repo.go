package repository

import (
	"context"

	"github.com/learnroad/learnroad-api/internal/models"
)

type CreateReviewInput struct {
	StudentID int64
	TutorID   int64
	SessionID int64
	Rating    int
	Comment   string
}

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	query := `
		INSERT INTO reviews (student_id, tutor_id, session_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, student_id, tutor_id, session_id, rating, comment, created_at
	`
	var review models.Review
	err := r.db.QueryRow(ctx, query,
		input.StudentID,
		input.TutorID,
		input.SessionID,
		input.Rating,
		input.Comment,
	).Scan(
		&review.ID,
		&review.StudentID,
		&review.TutorID,
		&review.SessionID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ListByTutorID(ctx context.Context, tutorID int64) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.student_id, r.tutor_id, r.session_id, r.rating, r.comment, r.created_at,
			   u.name, u.profile_image
		FROM reviews r
		JOIN users u ON u.id = r.student_id
		WHERE r.tutor_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var review models.Review
		student := models.Participant{}
		if err := rows.Scan(
			&review.ID,
			&review.StudentID,
			&review.TutorID,
			&review.SessionID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&student.Name,
			&student.ProfileImage,
		); err != nil {
			return nil, err
		}
		student.ID = review.StudentID
		review.Student = &student
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
