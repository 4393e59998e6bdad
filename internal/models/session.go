package models

import "time"

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Session struct {
	ID            int64         `json:"id"`
	StudentID     int64         `json:"student_id"`
	TutorID       int64         `json:"tutor_id"`
	Subject       string        `json:"subject"`
	Date          time.Time     `json:"date"`
	StartTime     string        `json:"start_time"`
	EndTime       string        `json:"end_time"`
	Status        SessionStatus `json:"status"`
	MeetingLink   string        `json:"meeting_link"`
	Price         float64       `json:"price"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type SessionFile struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedBy int64     `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type SessionDetail struct {
	Session
	Student *Participant  `json:"student,omitempty"`
	Tutor   *Participant  `json:"tutor,omitempty"`
	Files   []SessionFile `json:"files"`
	Payment *Payment      `json:"payment,omitempty"`
}
