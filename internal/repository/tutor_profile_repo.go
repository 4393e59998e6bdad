package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/learnroad/learnroad-api/internal/models"
)

const tutorProfileColumns = `id, user_id, subjects, hourly_rate, availability, bio, teaching_style,
	rating, review_count, total_earnings, withdrawn_earnings, created_at, updated_at`

type TutorProfileRepository struct {
	db DBTX
}

func NewTutorProfileRepository(db DBTX) *TutorProfileRepository {
	return &TutorProfileRepository{db: db}
}

type UpdateTutorProfileInput struct {
	Subjects      []string
	HourlyRate    float64
	Availability  []models.AvailabilitySlot
	Bio           string
	TeachingStyle string
}

type TutorListFilter struct {
	Subject   string
	MinRating *float64
	MaxRate   *float64
	Offset    int
	Limit     int
}

func (r *TutorProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO tutor_profiles (user_id) VALUES ($1)`, userID)
	return err
}

func (r *TutorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.TutorProfile, error) {
	query := `SELECT ` + tutorProfileColumns + ` FROM tutor_profiles WHERE user_id = $1`
	return scanTutorProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *TutorProfileRepository) Update(
	ctx context.Context,
	userID int64,
	input UpdateTutorProfileInput,
) (*models.TutorProfile, error) {
	query := `
		UPDATE tutor_profiles
		SET subjects = $2,
			hourly_rate = $3,
			availability = $4,
			bio = $5,
			teaching_style = $6,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + tutorProfileColumns
	return scanTutorProfile(r.db.QueryRow(ctx, query,
		userID,
		input.Subjects,
		input.HourlyRate,
		input.Availability,
		input.Bio,
		input.TeachingStyle,
	))
}

// ApplyReview folds one rating into the aggregate in a single statement so
// concurrent reviews for the same tutor cannot lose an update.
func (r *TutorProfileRepository) ApplyReview(ctx context.Context, userID int64, rating int) (*models.TutorProfile, error) {
	query := `
		UPDATE tutor_profiles
		SET rating_total = rating_total + $2,
			review_count = review_count + 1,
			rating = (rating_total + $2)::double precision / (review_count + 1),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + tutorProfileColumns
	return scanTutorProfile(r.db.QueryRow(ctx, query, userID, rating))
}

func (r *TutorProfileRepository) AddEarnings(ctx context.Context, userID int64, amount float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tutor_profiles
		SET total_earnings = total_earnings + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TutorProfileRepository) AddWithdrawn(ctx context.Context, userID int64, amount float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tutor_profiles
		SET withdrawn_earnings = withdrawn_earnings + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TutorProfileRepository) List(ctx context.Context, filter TutorListFilter) ([]models.TutorListItem, int, error) {
	args := []any{}
	where := "u.role = 'tutor'"
	if subject := strings.TrimSpace(filter.Subject); subject != "" {
		args = append(args, subject)
		where += fmt.Sprintf(" AND $%d = ANY(tp.subjects)", len(args))
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		where += fmt.Sprintf(" AND tp.rating >= $%d", len(args))
	}
	if filter.MaxRate != nil {
		args = append(args, *filter.MaxRate)
		where += fmt.Sprintf(" AND tp.hourly_rate <= $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM tutor_profiles tp JOIN users u ON u.id = tp.user_id WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.email, u.profile_image, tp.subjects, tp.hourly_rate, tp.rating, tp.review_count
		FROM tutor_profiles tp
		JOIN users u ON u.id = tp.user_id
		WHERE %s
		ORDER BY tp.rating DESC, tp.review_count DESC, u.id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tutors := make([]models.TutorListItem, 0)
	for rows.Next() {
		var item models.TutorListItem
		if err := rows.Scan(
			&item.UserID,
			&item.Name,
			&item.Email,
			&item.ProfileImage,
			&item.Subjects,
			&item.HourlyRate,
			&item.Rating,
			&item.ReviewCount,
		); err != nil {
			return nil, 0, err
		}
		tutors = append(tutors, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return tutors, total, nil
}

func (r *TutorProfileRepository) GetDetail(ctx context.Context, userID int64) (*models.TutorDetail, error) {
	query := `
		SELECT u.id, u.name, u.email, u.profile_image, tp.subjects, tp.hourly_rate, tp.rating,
			   tp.review_count, tp.bio, tp.teaching_style, tp.availability
		FROM tutor_profiles tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.user_id = $1 AND u.role = 'tutor'
	`
	var detail models.TutorDetail
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&detail.UserID,
		&detail.Name,
		&detail.Email,
		&detail.ProfileImage,
		&detail.Subjects,
		&detail.HourlyRate,
		&detail.Rating,
		&detail.ReviewCount,
		&detail.Bio,
		&detail.TeachingStyle,
		&detail.Availability,
	)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func scanTutorProfile(row pgx.Row) (*models.TutorProfile, error) {
	var profile models.TutorProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Subjects,
		&profile.HourlyRate,
		&profile.Availability,
		&profile.Bio,
		&profile.TeachingStyle,
		&profile.Rating,
		&profile.ReviewCount,
		&profile.TotalEarnings,
		&profile.WithdrawnEarnings,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profile.Availability == nil {
		profile.Availability = []models.AvailabilitySlot{}
	}
	if profile.Subjects == nil {
		profile.Subjects = []string{}
	}
	return &profile, nil
}
