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
	maxQuizTitle     = 200
	maxQuizQuestions = 100
)

type QuizInput struct {
	Title       string
	Description string
	Questions   []models.QuizQuestion
	IsPublished bool
}

type QuizService struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewQuizService(db *pgxpool.Pool, timeout time.Duration) *QuizService {
	return &QuizService{db: db, timeout: timeout}
}

// Create attaches a quiz to a session the tutor teaches. A session holds at
// most one quiz.
func (s *QuizService) Create(ctx context.Context, actor Actor, sessionID int64, input QuizInput) (*models.Quiz, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	normalized, err := normalizeQuiz(input)
	if err != nil {
		return nil, err
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.Quiz, error) {
		if _, err := participantSession(ctx, s.db, actor, sessionID); err != nil {
			return nil, err
		}
		quiz, err := repository.NewQuizRepository(s.db).Create(ctx, sessionID, normalized)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrQuizExists
			}
			return nil, err
		}
		return quiz, nil
	})
}

// Get returns the session's quiz. Students only see it once published, and
// without the answer key.
func (s *QuizService) Get(ctx context.Context, actor Actor, sessionID int64) (*models.Quiz, error) {
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.Quiz, error) {
		if _, err := participantSession(ctx, s.db, actor, sessionID); err != nil {
			return nil, err
		}
		quiz, err := repository.NewQuizRepository(s.db).GetBySessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrQuizNotFound
			}
			return nil, err
		}
		if actor.IsStudent() {
			if !quiz.IsPublished {
				return nil, ErrQuizNotFound
			}
			hideAnswers(quiz)
		}
		return quiz, nil
	})
}

func (s *QuizService) Update(ctx context.Context, actor Actor, sessionID int64, input QuizInput) (*models.Quiz, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	normalized, err := normalizeQuiz(input)
	if err != nil {
		return nil, err
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.Quiz, error) {
		if _, err := participantSession(ctx, s.db, actor, sessionID); err != nil {
			return nil, err
		}
		quiz, err := repository.NewQuizRepository(s.db).Update(ctx, sessionID, normalized)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrQuizNotFound
			}
			return nil, err
		}
		return quiz, nil
	})
}

func normalizeQuiz(input QuizInput) (repository.QuizInput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return repository.QuizInput{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxQuizTitle {
		return repository.QuizInput{}, fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxQuizTitle)
	}
	if len(input.Questions) == 0 {
		return repository.QuizInput{}, fmt.Errorf("%w: at least one question is required", ErrInvalidInput)
	}
	if len(input.Questions) > maxQuizQuestions {
		return repository.QuizInput{}, fmt.Errorf("%w: at most %d questions are allowed", ErrInvalidInput, maxQuizQuestions)
	}

	questions := make([]models.QuizQuestion, 0, len(input.Questions))
	for i, question := range input.Questions {
		normalized, err := normalizeQuestion(question)
		if err != nil {
			return repository.QuizInput{}, fmt.Errorf("%w: question %d: %s", ErrInvalidInput, i+1, err)
		}
		questions = append(questions, normalized)
	}

	return repository.QuizInput{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Questions:   questions,
		IsPublished: input.IsPublished,
	}, nil
}

func normalizeQuestion(question models.QuizQuestion) (models.QuizQuestion, error) {
	question.Text = strings.TrimSpace(question.Text)
	if question.Text == "" {
		return question, errors.New("text is required")
	}
	if question.Type == "" {
		question.Type = models.QuestionMultipleChoice
	}
	if !question.Type.Valid() {
		return question, fmt.Errorf("unknown type %q", question.Type)
	}

	options := make([]models.QuizOption, 0, len(question.Options))
	correct := 0
	for _, option := range question.Options {
		option.Text = strings.TrimSpace(option.Text)
		if option.Text == "" {
			return question, errors.New("option text is required")
		}
		if option.IsCorrect {
			correct++
		}
		options = append(options, option)
	}
	question.Options = options

	switch question.Type {
	case models.QuestionMultipleChoice:
		if len(options) < 2 || correct == 0 {
			return question, errors.New("multiple-choice needs at least two options and one correct answer")
		}
	case models.QuestionTrueFalse:
		if len(options) != 2 || correct != 1 {
			return question, errors.New("true-false needs exactly two options with one correct answer")
		}
	}
	return question, nil
}

func hideAnswers(quiz *models.Quiz) {
	for i := range quiz.Questions {
		for j := range quiz.Questions[i].Options {
			quiz.Questions[i].Options[j].IsCorrect = false
		}
	}
}
