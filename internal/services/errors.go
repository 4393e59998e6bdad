package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/learnroad/learnroad-api/internal/models"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrTutorNotFound          = fmt.Errorf("tutor %w", ErrNotFound)
	ErrSessionNotFound        = fmt.Errorf("session %w", ErrNotFound)
	ErrQuizNotFound           = fmt.Errorf("quiz %w", ErrNotFound)
	ErrConflict               = errors.New("conflict")
	ErrDuplicateReview        = fmt.Errorf("%w: session already reviewed", ErrConflict)
	ErrQuizExists             = fmt.Errorf("%w: session already has a quiz", ErrConflict)
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidSlot            = errors.New("requested time is outside the tutor's availability")
	ErrAmountMismatch         = fmt.Errorf("%w: amount does not match session price", ErrInvalidInput)
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrPaymentFailed          = errors.New("payment failed")
	ErrStoreTimeout           = errors.New("store operation timed out")
	ErrStorageUnavailable     = errors.New("storage service is not configured")
)

// Actor is the authenticated caller, resolved once per request.
type Actor struct {
	UserID int64
	Role   models.Role
}

func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

func (a Actor) IsTutor() bool { return a.Role == models.RoleTutor }

const defaultStoreTimeout = 5 * time.Second

// runBounded runs fn under a deadline and reports an expired deadline as
// ErrStoreTimeout so callers can retry.
func runBounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fn(ctx)
	if err != nil && isTimeout(err) {
		var zero T
		return zero, errors.Join(ErrStoreTimeout, err)
	}
	return result, err
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
