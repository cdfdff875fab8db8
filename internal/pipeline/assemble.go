package pipeline

import (
	"context"
	"errors"

	"fitstack/backend/internal/repository"
)

// assembleContext resolves the optional reference workout into an activity
// context. A missing workout, including an id owned by another user, is not
// an error: the context stays absent and downstream stages fall back to the
// request's free-text goals.
func (p *Pipeline) assembleContext(ctx context.Context, s State) State {
	var delta State

	if s.Request.WorkoutID == nil || *s.Request.WorkoutID == "" {
		return delta
	}

	workout, err := p.workouts.GetByID(ctx, *s.Request.WorkoutID, s.Request.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			delta.Warnings = append(delta.Warnings, "reference workout not found; using goals only")
			return delta
		}
		p.logger.Error("workout lookup failed", "workout_id", *s.Request.WorkoutID, "error", err)
		delta.Warnings = append(delta.Warnings, "reference workout unavailable; using goals only")
		return delta
	}

	delta.Context = &ActivityContext{
		Name:        workout.Name,
		Description: workout.Description,
		TargetAreas: workout.TargetAreas(),
	}
	return delta
}
