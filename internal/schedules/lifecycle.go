package schedules

import (
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

// transitions lists the statuses each status may move to. closed is terminal.
var transitions = map[models.ScheduleStatus][]models.ScheduleStatus{
	models.ScheduleDraft:  {models.ScheduleActive},
	models.ScheduleActive: {models.ScheduleClosed},
	models.ScheduleClosed: nil,
}

// CanTransition reports whether a schedule in from may move to to. Staying in the same status is not a
// transition and is rejected.
func CanTransition(from, to models.ScheduleStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a validation error naming both statuses when the move is not allowed.
func ValidateTransition(from, to models.ScheduleStatus) error {
	if !CanTransition(from, to) {
		return apperr.Validationf("Cannot transition from '%s' to '%s'", from, to)
	}
	return nil
}
