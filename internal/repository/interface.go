package repository

import (
	"context"
	"errors"

	"fitstack/backend/pkg/models"
)

// ErrNotFound is returned when a lookup matches no rows, including rows that
// exist but belong to another user.
var ErrNotFound = errors.New("not found")

// WorkoutStore is the read-only view of workout data the pipeline consumes.
type WorkoutStore interface {
	// GetByID returns the workout with the given id if it is owned by userID.
	// Ids owned by other users return ErrNotFound, not the other user's data.
	GetByID(ctx context.Context, id, userID string) (*models.Workout, error)
}

// ComplianceStore provides lookups against the regulatory-status reference
// data. The pipeline only reads; Upsert is the administrative write path used
// by the seed tool.
type ComplianceStore interface {
	// FindByIngredient returns all records matching the ingredient name
	// exactly (case-insensitive) for the given authority.
	FindByIngredient(ctx context.Context, ingredient, authority string) ([]models.ComplianceRecord, error)
	// SearchIngredient returns records whose ingredient name contains the
	// fragment, for the given authority. Last-resort partial matching.
	SearchIngredient(ctx context.Context, fragment, authority string) ([]models.ComplianceRecord, error)
	// Upsert creates or replaces the record keyed by (ingredient, authority).
	Upsert(ctx context.Context, rec *models.ComplianceRecord) error
}

// RecommendationStore persists recommendations and their citations.
type RecommendationStore interface {
	// CreateWithCitations writes the recommendation and every citation in a
	// single transaction: either all rows commit or none do.
	CreateWithCitations(ctx context.Context, rec *models.Recommendation) error
	// GetByID returns the recommendation with its citations, scoped to userID.
	GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error)
	// ListByUser returns the user's recommendations, newest first, without
	// hydrating citations.
	ListByUser(ctx context.Context, userID string) ([]*models.Recommendation, error)
}
