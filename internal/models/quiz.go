package models

import "time"

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
	QuestionShortAnswer    QuestionType = "short-answer"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer:
		return true
	default:
		return false
	}
}

type QuizOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

type QuizQuestion struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []QuizOption `json:"options"`
}

// Quiz is the single tutor-authored quiz attached to a session.
type Quiz struct {
	ID          int64          `json:"id"`
	SessionID   int64          `json:"session_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuizQuestion `json:"questions"`
	IsPublished bool           `json:"is_published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SessionNote is the shared notepad both participants of a session edit.
type SessionNote struct {
	SessionID    int64     `json:"session_id"`
	Content      string    `json:"content"`
	LastEditedBy int64     `json:"last_edited_by"`
	LastEditedAt time.Time `json:"last_edited_at"`
	CreatedAt    time.Time `json:"created_at"`
}
