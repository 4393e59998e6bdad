package services

import (
	"strings"

	"github.com/learnroad/learnroad-api/internal/models"
)

var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionScheduled:  {models.SessionInProgress, models.SessionCancelled},
	models.SessionInProgress: {models.SessionCompleted, models.SessionCancelled},
}

func ParseSessionStatus(value string) (models.SessionStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "scheduled":
		return models.SessionScheduled, nil
	case "in-progress", "inprogress", "start", "started":
		return models.SessionInProgress, nil
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func CanTransition(from, to models.SessionStatus) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
