package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
)

type SessionService struct {
	db             *pgxpool.Pool
	sessionRepo    *repository.SessionRepository
	paymentRepo    *repository.PaymentRepository
	userRepo       *repository.UserRepository
	storageService StorageService
	meetingLinks   *MeetingLinkGenerator
	timeout        time.Duration
	now            func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	meetingLinks *MeetingLinkGenerator,
	storageService StorageService,
	timeout time.Duration,
) *SessionService {
	return &SessionService{
		db:             db,
		sessionRepo:    repository.NewSessionRepository(db),
		paymentRepo:    repository.NewPaymentRepository(db),
		userRepo:       repository.NewUserRepository(db),
		storageService: storageService,
		meetingLinks:   meetingLinks,
		timeout:        timeout,
		now:            time.Now,
	}
}

type BookSessionInput struct {
	TutorID   int64
	Subject   string
	Date      string
	StartTime string
	EndTime   string
	// Price is optional; when set it must equal the price derived from the
	// tutor's hourly rate.
	Price *float64
	Notes string
}

type UpdateSessionInput struct {
	Status      *string
	MeetingLink *string
}

type AttachFileInput struct {
	File     io.Reader
	Filename string
}

func (s *SessionService) BookSession(
	ctx context.Context,
	actor Actor,
	input BookSessionInput,
) (*models.SessionDetail, error) {
	if !actor.IsStudent() {
		return nil, ErrForbidden
	}

	subject := strings.TrimSpace(input.Subject)
	if input.TutorID <= 0 || input.TutorID == actor.UserID || subject == "" {
		return nil, ErrInvalidInput
	}
	date, ok := ParseSessionDate(input.Date)
	if !ok {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if !validWindow(input.StartTime, input.EndTime) {
		return nil, fmt.Errorf("%w: times must be HH:MM with start before end", ErrInvalidInput)
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, fmt.Errorf("%w: date is in the past", ErrInvalidInput)
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionDetail, error) {
		tutor, err := s.userRepo.GetByID(ctx, input.TutorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}
		if tutor.Role != models.RoleTutor {
			return nil, ErrTutorNotFound
		}

		profile, err := repository.NewTutorProfileRepository(s.db).GetByUserID(ctx, input.TutorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}
		if len(profile.Subjects) > 0 && !containsFold(profile.Subjects, subject) {
			return nil, fmt.Errorf("%w: tutor does not teach %s", ErrInvalidInput, subject)
		}
		if !withinAvailability(profile.Availability, date, input.StartTime, input.EndTime) {
			return nil, ErrInvalidSlot
		}

		price := sessionPrice(profile.HourlyRate, input.StartTime, input.EndTime)
		if input.Price != nil && !sameAmount(*input.Price, price) {
			return nil, fmt.Errorf("%w: price must be %.2f", ErrInvalidInput, price)
		}

		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		if err := repository.LockTutor(ctx, tx, repository.LockNamespaceBooking, input.TutorID); err != nil {
			return nil, err
		}

		txSessionRepo := repository.NewSessionRepository(tx)
		hasConflict, err := txSessionRepo.HasConflict(ctx, input.TutorID, date, input.StartTime, input.EndTime)
		if err != nil {
			return nil, err
		}
		if hasConflict {
			return nil, ErrConflict
		}

		session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
			StudentID:   actor.UserID,
			TutorID:     input.TutorID,
			Subject:     subject,
			Date:        date,
			StartTime:   input.StartTime,
			EndTime:     input.EndTime,
			Price:       price,
			MeetingLink: s.meetingLinks.Link(input.TutorID, actor.UserID, date, input.StartTime, input.EndTime),
			Notes:       strings.TrimSpace(input.Notes),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrConflict
			}
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		return s.buildDetail(ctx, session)
	})
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actor Actor,
	filter repository.SessionListFilter,
) ([]models.SessionDetail, error) {
	status := ""
	if strings.TrimSpace(filter.Status) != "" {
		parsed, err := ParseSessionStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		status = string(parsed)
	}
	timeframe := strings.ToLower(strings.TrimSpace(filter.Timeframe))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return nil, fmt.Errorf("%w: timeframe must be upcoming or past", ErrInvalidInput)
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) ([]models.SessionDetail, error) {
		sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
			ActorID:   actor.UserID,
			Role:      actor.Role,
			Status:    status,
			Timeframe: timeframe,
		})
		if err != nil {
			return nil, err
		}

		sessionIDs := make([]int64, 0, len(sessions))
		userIDs := make([]int64, 0, len(sessions)*2)
		for _, session := range sessions {
			sessionIDs = append(sessionIDs, session.ID)
			userIDs = append(userIDs, session.StudentID, session.TutorID)
		}

		paymentsBySession, err := s.paymentRepo.ListLatestBySessionIDs(ctx, sessionIDs)
		if err != nil {
			return nil, err
		}
		participants, err := s.userRepo.GetParticipants(ctx, userIDs)
		if err != nil {
			return nil, err
		}

		details := make([]models.SessionDetail, 0, len(sessions))
		for _, session := range sessions {
			detail := models.SessionDetail{Session: session, Files: []models.SessionFile{}}
			if payment, ok := paymentsBySession[session.ID]; ok {
				paymentCopy := payment
				detail.Payment = &paymentCopy
			}
			detail.Student = participantRef(participants, session.StudentID)
			detail.Tutor = participantRef(participants, session.TutorID)
			details = append(details, detail)
		}

		return details, nil
	})
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actor Actor,
	sessionID int64,
) (*models.SessionDetail, error) {
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionDetail, error) {
		session, err := participantSession(ctx, s.db, actor, sessionID)
		if err != nil {
			return nil, err
		}
		return s.buildDetail(ctx, session)
	})
}

// UpdateSession applies a tutor's status transition and/or meeting link change.
func (s *SessionService) UpdateSession(
	ctx context.Context,
	actor Actor,
	sessionID int64,
	input UpdateSessionInput,
) (*models.SessionDetail, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	if input.Status == nil && input.MeetingLink == nil {
		return nil, fmt.Errorf("%w: status or meeting_link is required", ErrInvalidInput)
	}

	var nextStatus models.SessionStatus
	if input.Status != nil {
		parsed, err := ParseSessionStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		nextStatus = parsed
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionDetail, error) {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		txSessionRepo := repository.NewSessionRepository(tx)
		session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if session.TutorID != actor.UserID {
			return nil, ErrForbidden
		}

		if nextStatus != "" {
			if !CanTransition(session.Status, nextStatus) {
				return nil, ErrInvalidStateTransition
			}
			session, err = txSessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, ErrInvalidStateTransition
				}
				return nil, err
			}
			if nextStatus == models.SessionCompleted {
				if err := repository.NewTutorProfileRepository(tx).AddEarnings(ctx, session.TutorID, session.Price); err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return nil, ErrTutorNotFound
					}
					return nil, err
				}
			}
		}

		if input.MeetingLink != nil {
			session, err = txSessionRepo.UpdateMeetingLink(ctx, sessionID, strings.TrimSpace(*input.MeetingLink))
			if err != nil {
				return nil, err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		return s.buildDetail(ctx, session)
	})
}

func (s *SessionService) AttachFile(
	ctx context.Context,
	actor Actor,
	sessionID int64,
	input AttachFileInput,
) (*models.SessionFile, error) {
	if s.storageService == nil {
		return nil, ErrStorageUnavailable
	}
	name := filepath.Base(strings.TrimSpace(input.Filename))
	if input.File == nil || name == "" || name == "." || name == "/" {
		return nil, ErrInvalidInput
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.SessionFile, error) {
		session, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if !isParticipant(actor, session) {
			return nil, ErrForbidden
		}

		objectName := fmt.Sprintf("%d-%d-%s", actor.UserID, s.now().UnixNano(), name)
		fileURL, err := s.storageService.UploadFile(ctx, input.File, objectName, fmt.Sprintf("sessions/%d", sessionID))
		if err != nil {
			return nil, err
		}

		file, err := s.sessionRepo.AddFile(ctx, repository.CreateSessionFileInput{
			SessionID:  sessionID,
			Name:       name,
			URL:        fileURL,
			UploadedBy: actor.UserID,
		})
		if err != nil {
			cleanupErr := s.storageService.DeleteFile(ctx, fileURL)
			if cleanupErr != nil {
				return nil, errors.Join(err, fmt.Errorf("cleanup failed: %w", cleanupErr))
			}
			return nil, err
		}
		return file, nil
	})
}

// FileDownloadURL returns a short-lived signed URL for an attachment of a
// session the actor takes part in.
func (s *SessionService) FileDownloadURL(
	ctx context.Context,
	actor Actor,
	sessionID int64,
	fileID int64,
) (string, error) {
	if s.storageService == nil {
		return "", ErrStorageUnavailable
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (string, error) {
		session, err := s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", ErrSessionNotFound
			}
			return "", err
		}
		if !isParticipant(actor, session) {
			return "", ErrForbidden
		}

		file, err := s.sessionRepo.GetFile(ctx, sessionID, fileID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", ErrNotFound
			}
			return "", err
		}
		return s.storageService.GetSignedURL(ctx, file.URL)
	})
}

func (s *SessionService) buildDetail(ctx context.Context, session *models.Session) (*models.SessionDetail, error) {
	detail := &models.SessionDetail{Session: *session}

	participants, err := s.userRepo.GetParticipants(ctx, []int64{session.StudentID, session.TutorID})
	if err != nil {
		return nil, err
	}
	detail.Student = participantRef(participants, session.StudentID)
	detail.Tutor = participantRef(participants, session.TutorID)

	files, err := s.sessionRepo.ListFiles(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	detail.Files = files

	payment, err := s.paymentRepo.GetLatestBySessionID(ctx, session.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

// participantSession loads a session the actor takes part in.
func participantSession(ctx context.Context, db repository.DBTX, actor Actor, sessionID int64) (*models.Session, error) {
	session, err := repository.NewSessionRepository(db).GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !isParticipant(actor, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

func isParticipant(actor Actor, session *models.Session) bool {
	switch actor.Role {
	case models.RoleStudent:
		return session.StudentID == actor.UserID
	case models.RoleTutor:
		return session.TutorID == actor.UserID
	default:
		return false
	}
}

func participantRef(participants map[int64]models.Participant, id int64) *models.Participant {
	participant, ok := participants[id]
	if !ok {
		return nil
	}
	return &participant
}
