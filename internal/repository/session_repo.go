package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/learnroad/learnroad-api/internal/models"
)

const sessionColumns = `id, student_id, tutor_id, subject, date, start_time, end_time, status,
	meeting_link, price, payment_status, notes, created_at, updated_at`

type CreateSessionInput struct {
	StudentID   int64
	TutorID     int64
	Subject     string
	Date        time.Time
	StartTime   string
	EndTime     string
	Price       float64
	MeetingLink string
	Notes       string
}

type SessionListFilter struct {
	ActorID   int64
	Role      models.Role
	Status    string
	Timeframe string
}

type CreateSessionFileInput struct {
	SessionID  int64
	Name       string
	URL        string
	UploadedBy int64
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := `
		INSERT INTO sessions (student_id, tutor_id, subject, date, start_time, end_time,
			status, meeting_link, price, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', $7, $8, 'pending', $9)
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.StudentID,
		input.TutorID,
		input.Subject,
		input.Date,
		input.StartTime,
		input.EndTime,
		input.MeetingLink,
		input.Price,
		input.Notes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", participantColumn(filter.Role))}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(date >= CURRENT_DATE OR status IN ('scheduled', 'in-progress'))",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(date < CURRENT_DATE OR status IN ('completed', 'cancelled'))",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY date ASC, start_time ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) UpdateMeetingLink(
	ctx context.Context,
	sessionID int64,
	meetingLink string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET meeting_link = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, meetingLink))
}

func (r *SessionRepository) MarkPaidIfPending(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET payment_status = 'paid', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// HasConflict reports whether an active session for the tutor overlaps the
// window on that date. Times are zero-padded HH:MM so text order is time order.
func (r *SessionRepository) HasConflict(
	ctx context.Context,
	tutorID int64,
	date time.Time,
	startTime string,
	endTime string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE tutor_id = $1
			  AND date = $2
			  AND status IN ('scheduled', 'in-progress')
			  AND start_time < $4
			  AND end_time > $3
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, tutorID, date, startTime, endTime).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func (r *SessionRepository) SumCompletedPrice(ctx context.Context, tutorID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(price), 0)::float8
		FROM sessions
		WHERE tutor_id = $1 AND status = 'completed'
	`, tutorID).Scan(&total)
	return total, err
}

func (r *SessionRepository) ListCompletedBetween(
	ctx context.Context,
	tutorID int64,
	from time.Time,
	to time.Time,
) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE tutor_id = $1 AND status = 'completed' AND date >= $2 AND date < $3
		ORDER BY date DESC, start_time DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, tutorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *SessionRepository) AddFile(ctx context.Context, input CreateSessionFileInput) (*models.SessionFile, error) {
	query := `
		INSERT INTO session_files (session_id, name, url, uploaded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, name, url, uploaded_by, uploaded_at
	`
	var file models.SessionFile
	err := r.db.QueryRow(ctx, query, input.SessionID, input.Name, input.URL, input.UploadedBy).Scan(
		&file.ID,
		&file.SessionID,
		&file.Name,
		&file.URL,
		&file.UploadedBy,
		&file.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *SessionRepository) ListFiles(ctx context.Context, sessionID int64) ([]models.SessionFile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, name, url, uploaded_by, uploaded_at
		FROM session_files
		WHERE session_id = $1
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]models.SessionFile, 0)
	for rows.Next() {
		var file models.SessionFile
		if err := rows.Scan(
			&file.ID,
			&file.SessionID,
			&file.Name,
			&file.URL,
			&file.UploadedBy,
			&file.UploadedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (r *SessionRepository) GetFile(ctx context.Context, sessionID, fileID int64) (*models.SessionFile, error) {
	var file models.SessionFile
	err := r.db.QueryRow(ctx, `
		SELECT id, session_id, name, url, uploaded_by, uploaded_at
		FROM session_files
		WHERE session_id = $1 AND id = $2
	`, sessionID, fileID).Scan(
		&file.ID,
		&file.SessionID,
		&file.Name,
		&file.URL,
		&file.UploadedBy,
		&file.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func collectSessions(rows pgx.Rows) ([]models.Session, error) {
	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.StudentID,
		&session.TutorID,
		&session.Subject,
		&session.Date,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.MeetingLink,
		&session.Price,
		&session.PaymentStatus,
		&session.Notes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func participantColumn(role models.Role) string {
	if role == models.RoleTutor {
		return "tutor_id"
	}
	return "student_id"
}

func (r *SessionRepository) CountForParticipant(ctx context.Context, role models.Role, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE `+participantColumn(role)+` = $1`,
		userID,
	).Scan(&count)
	return count, err
}

// ListRecent returns non-cancelled sessions dated in [from, to), newest first.
func (r *SessionRepository) ListRecent(
	ctx context.Context,
	role models.Role,
	userID int64,
	from time.Time,
	to time.Time,
	limit int,
) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ` + participantColumn(role) + ` = $1
			AND status <> 'cancelled' AND date >= $2 AND date < $3
		ORDER BY date DESC, start_time DESC, id DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

// ListUpcoming returns open sessions dated on or after from, soonest first.
func (r *SessionRepository) ListUpcoming(
	ctx context.Context,
	role models.Role,
	userID int64,
	from time.Time,
	limit int,
) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ` + participantColumn(role) + ` = $1
			AND status IN ('scheduled', 'in-progress') AND date >= $2
		ORDER BY date ASC, start_time ASC, id ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, userID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

// StudentReach counts the distinct tutors and subjects a student has booked.
func (r *SessionRepository) StudentReach(ctx context.Context, studentID int64) (tutors int, subjects int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT tutor_id), COUNT(DISTINCT LOWER(subject))
		FROM sessions
		WHERE student_id = $1
	`, studentID).Scan(&tutors, &subjects)
	return tutors, subjects, err
}

// CompletedHoursSince sums the booked length of completed sessions dated on
// or after from.
func (r *SessionRepository) CompletedHoursSince(
	ctx context.Context,
	role models.Role,
	userID int64,
	from time.Time,
) (float64, error) {
	var hours float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time::time - start_time::time))), 0)::float8 / 3600
		FROM sessions
		WHERE `+participantColumn(role)+` = $1 AND status = 'completed' AND date >= $2
	`, userID, from).Scan(&hours)
	return hours, err
}
