package models

import "time"

// Exercise is one movement inside a workout.
type Exercise struct {
	ID          string   `json:"id" db:"id"`
	WorkoutID   string   `json:"workout_id" db:"workout_id"`
	Name        string   `json:"name" db:"name"`
	TargetAreas []string `json:"target_areas,omitempty" db:"target_areas"`
	Sets        int      `json:"sets" db:"sets"`
	Reps        int      `json:"reps" db:"reps"`
}

// Workout is a user-owned activity. The pipeline only ever reads it through
// an owner-scoped lookup; ids owned by other users resolve to not-found.
type Workout struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Exercises   []Exercise `json:"exercises,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TargetAreas flattens and de-duplicates the target-area tags across all
// exercises, preserving first-seen order.
func (w *Workout) TargetAreas() []string {
	seen := make(map[string]bool)
	var areas []string
	for _, ex := range w.Exercises {
		for _, area := range ex.TargetAreas {
			if seen[area] {
				continue
			}
			seen[area] = true
			areas = append(areas, area)
		}
	}
	return areas
}
