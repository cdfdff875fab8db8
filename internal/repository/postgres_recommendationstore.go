package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitstack/backend/pkg/models"
)

// PostgresRecommendationStore is a PostgreSQL implementation of the RecommendationStore interface.
type PostgresRecommendationStore struct {
	db *pgxpool.Pool
}

// NewPostgresRecommendationStore creates a new PostgresRecommendationStore.
func NewPostgresRecommendationStore(db *pgxpool.Pool) *PostgresRecommendationStore {
	return &PostgresRecommendationStore{db: db}
}

// CreateWithCitations writes the recommendation row and every citation row in
// one transaction. A failure on any insert rolls back the whole write.
func (s *PostgresRecommendationStore) CreateWithCitations(ctx context.Context, rec *models.Recommendation) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO recommendations (id, user_id, workout_id, content, reasoning, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		rec.ID, rec.UserID, rec.WorkoutID, rec.Content, rec.Reasoning, rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, c := range rec.Citations {
		_, err = tx.Exec(ctx,
			"INSERT INTO citations (id, recommendation_id, ingredient, compliance_record_id, text, source_url, needs_manual_review) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			c.ID, rec.ID, c.Ingredient, c.ComplianceRecordID, c.Text, c.SourceURL, c.NeedsManualReview,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a recommendation with its citations, scoped to the owner.
func (s *PostgresRecommendationStore) GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.QueryRow(ctx,
		"SELECT id, user_id, workout_id, content, reasoning, created_at FROM recommendations WHERE id = $1 AND user_id = $2",
		id, userID,
	).Scan(&rec.ID, &rec.UserID, &rec.WorkoutID, &rec.Content, &rec.Reasoning, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, recommendation_id, ingredient, compliance_record_id, text, source_url, needs_manual_review FROM citations WHERE recommendation_id = $1 ORDER BY ingredient",
		rec.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Citation
		err := rows.Scan(&c.ID, &c.RecommendationID, &c.Ingredient, &c.ComplianceRecordID, &c.Text, &c.SourceURL, &c.NeedsManualReview)
		if err != nil {
			return nil, err
		}
		rec.Citations = append(rec.Citations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

// ListByUser returns the user's recommendations, newest first. Citations are
// not hydrated; callers fetch a single recommendation when they need them.
func (s *PostgresRecommendationStore) ListByUser(ctx context.Context, userID string) ([]*models.Recommendation, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, user_id, workout_id, content, reasoning, created_at FROM recommendations WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.WorkoutID, &rec.Content, &rec.Reasoning, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
