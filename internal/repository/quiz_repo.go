package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/learnroad/learnroad-api/internal/models"
)

const quizColumns = `id, session_id, title, description, questions, is_published, created_at, updated_at`

type QuizInput struct {
	Title       string
	Description string
	Questions   []models.QuizQuestion
	IsPublished bool
}

type QuizRepository struct {
	db DBTX
}

func NewQuizRepository(db DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// Create fails with a unique violation when the session already has a quiz.
func (r *QuizRepository) Create(ctx context.Context, sessionID int64, input QuizInput) (*models.Quiz, error) {
	query := `
		INSERT INTO session_quizzes (session_id, title, description, questions, is_published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + quizColumns
	return scanQuiz(r.db.QueryRow(ctx, query,
		sessionID,
		input.Title,
		input.Description,
		input.Questions,
		input.IsPublished,
	))
}

func (r *QuizRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM session_quizzes WHERE session_id = $1`
	return scanQuiz(r.db.QueryRow(ctx, query, sessionID))
}

func (r *QuizRepository) Update(ctx context.Context, sessionID int64, input QuizInput) (*models.Quiz, error) {
	query := `
		UPDATE session_quizzes
		SET title = $2,
			description = $3,
			questions = $4,
			is_published = $5,
			updated_at = NOW()
		WHERE session_id = $1
		RETURNING ` + quizColumns
	return scanQuiz(r.db.QueryRow(ctx, query,
		sessionID,
		input.Title,
		input.Description,
		input.Questions,
		input.IsPublished,
	))
}

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	var quiz models.Quiz
	err := row.Scan(
		&quiz.ID,
		&quiz.SessionID,
		&quiz.Title,
		&quiz.Description,
		&quiz.Questions,
		&quiz.IsPublished,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if quiz.Questions == nil {
		quiz.Questions = []models.QuizQuestion{}
	}
	return &quiz, nil
}
