package models

import "time"

type LedgerStatus string

const (
	LedgerPending   LedgerStatus = "pending"
	LedgerCompleted LedgerStatus = "completed"
	LedgerFailed    LedgerStatus = "failed"
	LedgerRefunded  LedgerStatus = "refunded"
)

type PaymentType string

const (
	PaymentTypePayment    PaymentType = "payment"
	PaymentTypeWithdrawal PaymentType = "withdrawal"
)

// Payment is a ledger row. Withdrawals carry no session or student.
type Payment struct {
	ID             int64        `json:"id"`
	SessionID      *int64       `json:"session_id,omitempty"`
	StudentID      *int64       `json:"student_id,omitempty"`
	TutorID        int64        `json:"tutor_id"`
	Amount         float64      `json:"amount"`
	Currency       string       `json:"currency"`
	Status         LedgerStatus `json:"status"`
	Type           PaymentType  `json:"type"`
	PaymentMethod  string       `json:"payment_method"`
	TransactionID  string       `json:"transaction_id"`
	IdempotencyKey *string      `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
}

type Balance struct {
	TotalEarnings    float64 `json:"total_earnings"`
	WithdrawnAmount  float64 `json:"withdrawn_amount"`
	AvailableBalance float64 `json:"available_balance"`
}

type EarningsSummary struct {
	TotalEarnings     float64   `json:"total_earnings"`
	WithdrawnAmount   float64   `json:"withdrawn_amount"`
	AvailableBalance  float64   `json:"available_balance"`
	MonthlyEarnings   float64   `json:"monthly_earnings"`
	CompletedSessions []Session `json:"completed_sessions"`
	RecentPayments    []Payment `json:"recent_payments"`
}
