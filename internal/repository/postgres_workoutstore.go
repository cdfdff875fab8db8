package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitstack/backend/pkg/models"
)

// PostgresWorkoutStore is a PostgreSQL implementation of the WorkoutStore interface.
type PostgresWorkoutStore struct {
	db *pgxpool.Pool
}

// NewPostgresWorkoutStore creates a new PostgresWorkoutStore.
func NewPostgresWorkoutStore(db *pgxpool.Pool) *PostgresWorkoutStore {
	return &PostgresWorkoutStore{db: db}
}

// GetByID retrieves a workout with its exercises, scoped to the owning user.
func (s *PostgresWorkoutStore) GetByID(ctx context.Context, id, userID string) (*models.Workout, error) {
	var w models.Workout
	err := s.db.QueryRow(ctx,
		"SELECT id, user_id, name, description, created_at FROM workouts WHERE id = $1 AND user_id = $2",
		id, userID,
	).Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, workout_id, name, target_areas, sets, reps FROM exercises WHERE workout_id = $1",
		w.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.WorkoutID, &ex.Name, &ex.TargetAreas, &ex.Sets, &ex.Reps); err != nil {
			return nil, err
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &w, nil
}

// CreateWorkout inserts a workout and its exercises. Used by the seed tool
// and tests; the pipeline itself never writes workouts.
func (s *PostgresWorkoutStore) CreateWorkout(ctx context.Context, w *models.Workout) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO workouts (id, user_id, name, description) VALUES ($1, $2, $3, $4)",
		w.ID, w.UserID, w.Name, w.Description,
	)
	if err != nil {
		return err
	}
	for _, ex := range w.Exercises {
		_, err = tx.Exec(ctx,
			"INSERT INTO exercises (id, workout_id, name, target_areas, sets, reps) VALUES ($1, $2, $3, $4, $5, $6)",
			ex.ID, w.ID, ex.Name, ex.TargetAreas, ex.Sets, ex.Reps,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
