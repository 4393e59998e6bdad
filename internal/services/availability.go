package services

import (
	"math"
	"strings"
	"time"

	"github.com/learnroad/learnroad-api/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(day string) (time.Weekday, bool) {
	weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	return weekday, ok
}

// ParseClock converts a zero-padded "HH:MM" into minutes after midnight.
func ParseClock(value string) (int, bool) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil || parsed.Format(clockLayout) != value {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}

func ParseSessionDate(value string) (time.Time, bool) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func validWindow(start, end string) bool {
	startMin, ok := ParseClock(start)
	if !ok {
		return false
	}
	endMin, ok := ParseClock(end)
	if !ok {
		return false
	}
	return startMin < endMin
}

// ValidateAvailability checks weekday names and HH:MM windows of a profile edit.
func ValidateAvailability(slots []models.AvailabilitySlot) string {
	for _, slot := range slots {
		if _, ok := ParseWeekday(slot.Day); !ok {
			return "availability day must be a weekday name such as Monday"
		}
		if !validWindow(slot.StartTime, slot.EndTime) {
			return "availability times must be HH:MM with start_time before end_time"
		}
	}
	return ""
}

// withinAvailability reports whether [start, end) on date's weekday fits inside
// one declared window.
func withinAvailability(slots []models.AvailabilitySlot, date time.Time, start, end string) bool {
	startMin, ok := ParseClock(start)
	if !ok {
		return false
	}
	endMin, ok := ParseClock(end)
	if !ok {
		return false
	}

	for _, slot := range slots {
		day, ok := ParseWeekday(slot.Day)
		if !ok || day != date.Weekday() {
			continue
		}
		slotStart, okStart := ParseClock(slot.StartTime)
		slotEnd, okEnd := ParseClock(slot.EndTime)
		if !okStart || !okEnd {
			continue
		}
		if startMin >= slotStart && endMin <= slotEnd {
			return true
		}
	}
	return false
}

func sessionPrice(hourlyRate float64, start, end string) float64 {
	startMin, _ := ParseClock(start)
	endMin, _ := ParseClock(end)
	return roundCents(hourlyRate * float64(endMin-startMin) / 60)
}

func roundCents(value float64) float64 {
	return math.Round(value*100) / 100
}

func sameAmount(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}
