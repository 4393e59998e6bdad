package models

type DashboardSession struct {
	ID           int64         `json:"id"`
	Subject      string        `json:"subject"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Status       SessionStatus `json:"status"`
	Counterpart  *Participant  `json:"counterpart,omitempty"`
	DurationMins int           `json:"duration_minutes"`
}

type DashboardStats struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalHours      float64 `json:"total_hours"`
	Subjects        int     `json:"subjects"`
	TutorsConnected int     `json:"tutors_connected,omitempty"`
	TotalEarnings   float64 `json:"total_earnings,omitempty"`
	Rating          float64 `json:"rating,omitempty"`
	ReviewCount     int     `json:"review_count,omitempty"`
}

type Dashboard struct {
	User             *User              `json:"user"`
	Stats            DashboardStats     `json:"stats"`
	RecentSessions   []DashboardSession `json:"recent_sessions"`
	UpcomingSessions []DashboardSession `json:"upcoming_sessions"`
}
