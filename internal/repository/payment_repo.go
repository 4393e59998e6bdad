package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/learnroad/learnroad-api/internal/models"
)

const paymentColumns = `id, session_id, student_id, tutor_id, amount, currency, status, type,
	payment_method, transaction_id, idempotency_key, created_at`

type CreatePaymentInput struct {
	SessionID      *int64
	StudentID      *int64
	TutorID        int64
	Amount         float64
	Currency       string
	Status         models.LedgerStatus
	Type           models.PaymentType
	PaymentMethod  string
	TransactionID  string
	IdempotencyKey *string
}

// PaymentRepository is insert-only: ledger rows are never updated.
type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (session_id, student_id, tutor_id, amount, currency, status, type,
			payment_method, transaction_id, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query,
		input.SessionID,
		input.StudentID,
		input.TutorID,
		input.Amount,
		input.Currency,
		input.Status,
		input.Type,
		input.PaymentMethod,
		input.TransactionID,
		input.IdempotencyKey,
	))
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`
	return scanPayment(r.db.QueryRow(ctx, query, key))
}

func (r *PaymentRepository) GetCompletedBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE session_id = $1 AND type = 'payment' AND status = 'completed'
		ORDER BY id DESC
		LIMIT 1
	`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) GetLatestBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE session_id = $1 AND type = 'payment'
		ORDER BY id DESC
		LIMIT 1
	`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) ListLatestBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (session_id) ` + paymentColumns + `
		FROM payments
		WHERE session_id = ANY($1) AND type = 'payment'
		ORDER BY session_id, id DESC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		if payment.SessionID != nil {
			payments[*payment.SessionID] = *payment
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepository) SumCompletedWithdrawals(ctx context.Context, tutorID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::float8
		FROM payments
		WHERE tutor_id = $1 AND type = 'withdrawal' AND status = 'completed'
	`, tutorID).Scan(&total)
	return total, err
}

func (r *PaymentRepository) ListRecentCompleted(ctx context.Context, tutorID int64, limit int) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE tutor_id = $1 AND status = 'completed'
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, tutorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.StudentID,
		&payment.TutorID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.Type,
		&payment.PaymentMethod,
		&payment.TransactionID,
		&payment.IdempotencyKey,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
