package models

import "time"

type AvailabilitySlot struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type TutorProfile struct {
	ID                int64              `json:"id"`
	UserID            int64              `json:"user_id"`
	Subjects          []string           `json:"subjects"`
	HourlyRate        float64            `json:"hourly_rate"`
	Availability      []AvailabilitySlot `json:"availability"`
	Bio               string             `json:"bio"`
	TeachingStyle     string             `json:"teaching_style"`
	Rating            float64            `json:"rating"`
	ReviewCount       int                `json:"review_count"`
	TotalEarnings     float64            `json:"total_earnings"`
	WithdrawnEarnings float64            `json:"withdrawn_earnings"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type TutorListItem struct {
	UserID       int64    `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	ProfileImage string   `json:"profile_image"`
	Subjects     []string `json:"subjects"`
	HourlyRate   float64  `json:"hourly_rate"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
}

type TutorDetail struct {
	TutorListItem
	Bio           string             `json:"bio"`
	TeachingStyle string             `json:"teaching_style"`
	Availability  []AvailabilitySlot `json:"availability"`
}
