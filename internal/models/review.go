package models

import "time"

type Review struct {
	ID        int64        `json:"id"`
	StudentID int64        `json:"student_id"`
	TutorID   int64        `json:"tutor_id"`
	SessionID int64        `json:"session_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"created_at"`
	Student   *Participant `json:"student,omitempty"`
}
