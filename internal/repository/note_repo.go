package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/learnroad/learnroad-api/internal/models"
)

const noteColumns = `session_id, content, last_edited_by, last_edited_at, created_at`

type NoteRepository struct {
	db DBTX
}

func NewNoteRepository(db DBTX) *NoteRepository {
	return &NoteRepository{db: db}
}

// GetOrCreate returns the session's note, creating an empty one attributed
// to userID on first access. Concurrent first reads converge on one row.
func (r *NoteRepository) GetOrCreate(ctx context.Context, sessionID, userID int64) (*models.SessionNote, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO session_notes (session_id, last_edited_by)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, userID)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + noteColumns + ` FROM session_notes WHERE session_id = $1`
	return scanNote(r.db.QueryRow(ctx, query, sessionID))
}

// Save replaces the content; the last writer wins.
func (r *NoteRepository) Save(ctx context.Context, sessionID, userID int64, content string) (*models.SessionNote, error) {
	query := `
		INSERT INTO session_notes (session_id, content, last_edited_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE
		SET content = EXCLUDED.content,
			last_edited_by = EXCLUDED.last_edited_by,
			last_edited_at = NOW()
		RETURNING ` + noteColumns
	return scanNote(r.db.QueryRow(ctx, query, sessionID, content, userID))
}

func scanNote(row pgx.Row) (*models.SessionNote, error) {
	var note models.SessionNote
	err := row.Scan(
		&note.SessionID,
		&note.Content,
		&note.LastEditedBy,
		&note.LastEditedAt,
		&note.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}
