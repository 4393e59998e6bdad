package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
)

const (
	dashboardRecentLimit   = 5
	dashboardUpcomingLimit = 3
)

type DashboardService struct {
	db      *pgxpool.Pool
	timeout time.Duration
	now     func() time.Time
}

func NewDashboardService(db *pgxpool.Pool, timeout time.Duration) *DashboardService {
	return &DashboardService{db: db, timeout: timeout, now: time.Now}
}

// Summary gathers the caller's landing-page view: recent and upcoming
// sessions plus role-specific totals.
func (s *DashboardService) Summary(ctx context.Context, actor Actor) (*models.Dashboard, error) {
	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.Dashboard, error) {
		user, err := repository.NewUserRepository(s.db).GetByID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		now := s.now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		monthAgo := today.AddDate(0, -1, 0)

		sessionRepo := repository.NewSessionRepository(s.db)
		total, err := sessionRepo.CountForParticipant(ctx, actor.Role, actor.UserID)
		if err != nil {
			return nil, err
		}
		recent, err := sessionRepo.ListRecent(ctx, actor.Role, actor.UserID, monthAgo, today, dashboardRecentLimit)
		if err != nil {
			return nil, err
		}
		upcoming, err := sessionRepo.ListUpcoming(ctx, actor.Role, actor.UserID, today, dashboardUpcomingLimit)
		if err != nil {
			return nil, err
		}
		hours, err := sessionRepo.CompletedHoursSince(ctx, actor.Role, actor.UserID, monthAgo)
		if err != nil {
			return nil, err
		}

		stats := models.DashboardStats{
			TotalSessions: total,
			TotalHours:    math.Round(hours*10) / 10,
		}
		if actor.IsTutor() {
			profile, err := repository.NewTutorProfileRepository(s.db).GetByUserID(ctx, actor.UserID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, ErrTutorNotFound
				}
				return nil, err
			}
			stats.Subjects = len(profile.Subjects)
			stats.TotalEarnings = profile.TotalEarnings
			stats.Rating = profile.Rating
			stats.ReviewCount = profile.ReviewCount
		} else {
			stats.TutorsConnected, stats.Subjects, err = sessionRepo.StudentReach(ctx, actor.UserID)
			if err != nil {
				return nil, err
			}
		}

		counterpartIDs := make([]int64, 0, len(recent)+len(upcoming))
		for _, session := range recent {
			counterpartIDs = append(counterpartIDs, counterpartID(actor, session))
		}
		for _, session := range upcoming {
			counterpartIDs = append(counterpartIDs, counterpartID(actor, session))
		}
		participants, err := repository.NewUserRepository(s.db).GetParticipants(ctx, counterpartIDs)
		if err != nil {
			return nil, err
		}

		return &models.Dashboard{
			User:             user,
			Stats:            stats,
			RecentSessions:   dashboardSessions(actor, recent, participants),
			UpcomingSessions: dashboardSessions(actor, upcoming, participants),
		}, nil
	})
}

func counterpartID(actor Actor, session models.Session) int64 {
	if actor.IsTutor() {
		return session.StudentID
	}
	return session.TutorID
}

func dashboardSessions(actor Actor, sessions []models.Session, participants map[int64]models.Participant) []models.DashboardSession {
	items := make([]models.DashboardSession, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, models.DashboardSession{
			ID:           session.ID,
			Subject:      session.Subject,
			Date:         session.Date.Format(dateLayout),
			StartTime:    session.StartTime,
			EndTime:      session.EndTime,
			Status:       session.Status,
			Counterpart:  participantRef(participants, counterpartID(actor, session)),
			DurationMins: sessionMinutes(session.StartTime, session.EndTime),
		})
	}
	return items
}

func sessionMinutes(start, end string) int {
	startMin, ok := ParseClock(start)
	if !ok {
		return 0
	}
	endMin, ok := ParseClock(end)
	if !ok || endMin < startMin {
		return 0
	}
	return endMin - startMin
}
