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
	"github.com/rs/zerolog"
)

var paymentMethods = map[string]struct{}{
	"card":          {},
	"paypal":        {},
	"bank_transfer": {},
}

type CapturePaymentInput struct {
	SessionID      int64
	Amount         float64
	Method         string
	IdempotencyKey string
}

type PaymentResult struct {
	Payment     *models.Payment `json:"payment"`
	Session     *models.Session `json:"session"`
	AlreadyPaid bool            `json:"already_paid"`
}

type PaymentService struct {
	db          *pgxpool.Pool
	paymentRepo *repository.PaymentRepository
	sessionRepo *repository.SessionRepository
	gateway     PaymentGateway
	currency    string
	timeout     time.Duration
}

func NewPaymentService(db *pgxpool.Pool, gateway PaymentGateway, currency string, timeout time.Duration) *PaymentService {
	return &PaymentService{
		db:          db,
		paymentRepo: repository.NewPaymentRepository(db),
		sessionRepo: repository.NewSessionRepository(db),
		gateway:     gateway,
		currency:    currency,
		timeout:     timeout,
	}
}

// CapturePayment charges the student for a session. The session row stays
// locked from the paid check until the ledger row and the paid flag commit,
// so a session is charged at most once.
func (s *PaymentService) CapturePayment(
	ctx context.Context,
	actor Actor,
	input CapturePaymentInput,
) (*PaymentResult, error) {
	if !actor.IsStudent() {
		return nil, ErrForbidden
	}
	method := strings.ToLower(strings.TrimSpace(input.Method))
	if method == "credit_card" {
		method = "card"
	}
	if _, ok := paymentMethods[method]; !ok {
		return nil, fmt.Errorf("%w: payment method must be card, paypal or bank_transfer", ErrInvalidInput)
	}
	if input.SessionID <= 0 || input.Amount <= 0 {
		return nil, ErrInvalidInput
	}
	key := strings.TrimSpace(input.IdempotencyKey)

	return runBounded(ctx, s.timeout, func(ctx context.Context) (*PaymentResult, error) {
		if key != "" {
			result, err := s.replay(ctx, actor, input.SessionID, key)
			if err != nil || result != nil {
				return result, err
			}
		}

		tx, err := s.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		txSessionRepo := repository.NewSessionRepository(tx)
		txPaymentRepo := repository.NewPaymentRepository(tx)

		session, err := txSessionRepo.GetByIDForUpdate(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if session.StudentID != actor.UserID {
			return nil, ErrForbidden
		}

		if session.PaymentStatus == models.PaymentStatusPaid {
			existing, err := txPaymentRepo.GetCompletedBySessionID(ctx, session.ID)
			if err != nil {
				return nil, err
			}
			return &PaymentResult{Payment: existing, Session: session, AlreadyPaid: true}, nil
		}
		if session.Status == models.SessionCancelled || session.Status == models.SessionCompleted {
			return nil, ErrInvalidStateTransition
		}
		if !sameAmount(input.Amount, session.Price) {
			return nil, ErrAmountMismatch
		}

		charge, err := s.gateway.Charge(ctx, ChargeRequest{
			Amount:    roundCents(session.Price),
			Currency:  s.currency,
			Method:    method,
			Reference: fmt.Sprintf("session-%d", session.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("charge session %d: %w", session.ID, err)
		}

		sessionID := session.ID
		studentID := session.StudentID
		paymentInput := repository.CreatePaymentInput{
			SessionID:     &sessionID,
			StudentID:     &studentID,
			TutorID:       session.TutorID,
			Amount:        roundCents(session.Price),
			Currency:      s.currency,
			Type:          models.PaymentTypePayment,
			PaymentMethod: method,
			TransactionID: charge.TransactionID,
		}

		if !charge.Approved {
			paymentInput.Status = models.LedgerFailed
			if _, err := txPaymentRepo.Create(ctx, paymentInput); err != nil {
				return nil, err
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			zerolog.Ctx(ctx).Info().
				Int64("session_id", session.ID).
				Str("reason", charge.DeclineReason).
				Msg("payment declined")
			return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, charge.DeclineReason)
		}

		paymentInput.Status = models.LedgerCompleted
		if key != "" {
			paymentInput.IdempotencyKey = &key
		}
		payment, err := txPaymentRepo.Create(ctx, paymentInput)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrConflict
			}
			return nil, err
		}

		paidSession, err := txSessionRepo.MarkPaidIfPending(ctx, session.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrConflict
			}
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &PaymentResult{Payment: payment, Session: paidSession}, nil
	})
}

// replay returns the payment recorded under key, or nil when the key is new.
func (s *PaymentService) replay(ctx context.Context, actor Actor, sessionID int64, key string) (*PaymentResult, error) {
	payment, err := s.paymentRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if payment.StudentID == nil || *payment.StudentID != actor.UserID ||
		payment.SessionID == nil || *payment.SessionID != sessionID {
		return nil, fmt.Errorf("%w: idempotency key already used", ErrConflict)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: payment, Session: session, AlreadyPaid: true}, nil
}
