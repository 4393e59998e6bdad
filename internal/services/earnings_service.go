package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/repository"
	"github.com/rs/zerolog"
)

const recentPaymentsLimit = 10

type WithdrawResult struct {
	Payment *models.Payment `json:"payment"`
	Balance models.Balance  `json:"balance"`
}

type EarningsService struct {
	db       *pgxpool.Pool
	currency string
	timeout  time.Duration
	now      func() time.Time
}

func NewEarningsService(db *pgxpool.Pool, currency string, timeout time.Duration) *EarningsService {
	return &EarningsService{
		db:       db,
		currency: currency,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Balance is always recomputed from the ledger, never read from the
// denormalized tutor profile columns.
func (s *EarningsService) Balance(ctx context.Context, actor Actor) (models.Balance, error) {
	if !actor.IsTutor() {
		return models.Balance{}, ErrForbidden
	}
	return runBounded(ctx, s.timeout, func(ctx context.Context) (models.Balance, error) {
		return computeBalance(ctx, s.db, actor.UserID)
	})
}

func (s *EarningsService) Summary(ctx context.Context, actor Actor) (*models.EarningsSummary, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*models.EarningsSummary, error) {
		balance, err := computeBalance(ctx, s.db, actor.UserID)
		if err != nil {
			return nil, err
		}

		now := s.now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthly, err := repository.NewSessionRepository(s.db).ListCompletedBetween(
			ctx,
			actor.UserID,
			monthStart,
			monthStart.AddDate(0, 1, 0),
		)
		if err != nil {
			return nil, err
		}

		recent, err := repository.NewPaymentRepository(s.db).ListRecentCompleted(ctx, actor.UserID, recentPaymentsLimit)
		if err != nil {
			return nil, err
		}

		var monthlyEarnings float64
		for _, session := range monthly {
			monthlyEarnings += session.Price
		}

		return &models.EarningsSummary{
			TotalEarnings:     balance.TotalEarnings,
			WithdrawnAmount:   balance.WithdrawnAmount,
			AvailableBalance:  balance.AvailableBalance,
			MonthlyEarnings:   roundCents(monthlyEarnings),
			CompletedSessions: monthly,
			RecentPayments:    recent,
		}, nil
	})
}

// Withdraw moves amount out of the tutor's available balance. The per-tutor
// ledger lock serializes concurrent withdrawals so the balance check and the
// ledger insert see the same state.
func (s *EarningsService) Withdraw(ctx context.Context, actor Actor, amount float64) (*WithdrawResult, error) {
	if !actor.IsTutor() {
		return nil, ErrForbidden
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	amount = roundCents(amount)

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*WithdrawResult, error) {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		if err := repository.LockTutor(ctx, tx, repository.LockNamespaceLedger, actor.UserID); err != nil {
			return nil, err
		}

		balance, err := computeBalance(ctx, tx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if amount > balance.AvailableBalance+0.005 {
			return nil, ErrInsufficientBalance
		}

		payment, err := repository.NewPaymentRepository(tx).Create(ctx, repository.CreatePaymentInput{
			TutorID:       actor.UserID,
			Amount:        amount,
			Currency:      s.currency,
			Status:        models.LedgerCompleted,
			Type:          models.PaymentTypeWithdrawal,
			PaymentMethod: "bank_transfer",
		})
		if err != nil {
			return nil, err
		}

		if err := repository.NewTutorProfileRepository(tx).AddWithdrawn(ctx, actor.UserID, amount); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTutorNotFound
			}
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		balance.WithdrawnAmount = roundCents(balance.WithdrawnAmount + amount)
		balance.AvailableBalance = roundCents(balance.TotalEarnings - balance.WithdrawnAmount)

		zerolog.Ctx(ctx).Info().
			Int64("tutor_id", actor.UserID).
			Float64("amount", amount).
			Msg("withdrawal recorded")

		return &WithdrawResult{Payment: payment, Balance: balance}, nil
	})
}

func computeBalance(ctx context.Context, db repository.DBTX, tutorID int64) (models.Balance, error) {
	total, err := repository.NewSessionRepository(db).SumCompletedPrice(ctx, tutorID)
	if err != nil {
		return models.Balance{}, err
	}
	withdrawn, err := repository.NewPaymentRepository(db).SumCompletedWithdrawals(ctx, tutorID)
	if err != nil {
		return models.Balance{}, err
	}

	return models.Balance{
		TotalEarnings:    roundCents(total),
		WithdrawnAmount:  roundCents(withdrawn),
		AvailableBalance: roundCents(total - withdrawn),
	}, nil
}
