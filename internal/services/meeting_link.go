package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var meetingLinkNamespace = uuid.MustParse("6f1c7a52-4a7e-4c39-9a65-2d8cf2a0c6b1")

// MeetingLinkGenerator derives a stable placeholder room per booking of a
// tutor slot. It is not backed by any conferencing provider.
type MeetingLinkGenerator struct {
	baseURL string
}

func NewMeetingLinkGenerator(baseURL string) *MeetingLinkGenerator {
	return &MeetingLinkGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

// Link keys the room on the student too, so a slot rebooked after a
// cancellation never reuses the previous student's room.
func (g *MeetingLinkGenerator) Link(tutorID, studentID int64, date time.Time, startTime, endTime string) string {
	name := fmt.Sprintf("%d|%d|%s|%s|%s", tutorID, studentID, date.Format(dateLayout), startTime, endTime)
	room := uuid.NewSHA1(meetingLinkNamespace, []byte(name))
	return g.baseURL + "/" + room.String()
}
