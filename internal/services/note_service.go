package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
)

const maxNoteLength = 100_000

type NoteService struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewNoteService(db *pgxpool.Pool, timeout time.Duration) *NoteService {
	return &NoteService{db: db, timeout: timeout}
}

// Get returns the shared note of a session, creating it empty on first read.
func (s *NoteService) Get(ctx context.Context, actor Actor, sessionID int64) (*models.SessionNote, error) {
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionNote, error) {
		if _, err := participantSession(ctx, s.db, actor, sessionID); err != nil {
			return nil, err
		}
		return repository.NewNoteRepository(s.db).GetOrCreate(ctx, sessionID, actor.UserID)
	})
}

func (s *NoteService) Save(ctx context.Context, actor Actor, sessionID int64, content string) (*models.SessionNote, error) {
	if len(content) > maxNoteLength {
		return nil, fmt.Errorf("%w: content must be at most %d bytes", ErrInvalidInput, maxNoteLength)
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionNote, error) {
		if _, err := participantSession(ctx, s.db, actor, sessionID); err != nil {
			return nil, err
		}
		return repository.NewNoteRepository(s.db).Save(ctx, sessionID, actor.UserID, content)
	})
}
