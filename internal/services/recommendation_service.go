package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fitstack/backend/internal/logging"
	"fitstack/backend/internal/pipeline"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

// RecommendationService is the single entry point into the recommendation
// pipeline. It validates input, runs the stage graph, converts accumulated
// stage errors into the typed error taxonomy, and re-reads the persisted
// record so callers see exactly what a concurrent reader would.
type RecommendationService struct {
	pipeline *pipeline.Pipeline
	recs     repository.RecommendationStore
	logger   *logging.Logger

	created  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(p *pipeline.Pipeline, recs repository.RecommendationStore, logger *logging.Logger) *RecommendationService {
	meter := otel.Meter("fitstack/backend/recommendation")
	created, _ := meter.Int64Counter("recommendations_created_total",
		metric.WithDescription("Recommendations persisted with full citations"))
	rejected, _ := meter.Int64Counter("recommendations_rejected_total",
		metric.WithDescription("Pipeline runs ending in a terminal error"))

	return &RecommendationService{
		pipeline: p,
		recs:     recs,
		logger:   logger,
		created:  created,
		rejected: rejected,
	}
}

// Recommend runs the pipeline for an authenticated requester. The caller
// receives either a fully-formed, citation-complete recommendation or a
// typed error describing why; never a partially-compliant result.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, req models.RecommendationRequest) (*models.Recommendation, error) {
	req.UserID = userID
	if err := req.Validate(); err != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "input")))
		return nil, &pipeline.InputError{Reason: err.Error()}
	}

	state, err := s.pipeline.Run(ctx, req)
	if err != nil {
		// Cancellation or a miswired graph, not a stage failure.
		return nil, err
	}

	if typed := pipeline.TypedError(state); typed != nil {
		s.logger.Info("pipeline terminated without a recommendation",
			"user_id", userID, "error", typed)
		s.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", string(state.Errors[0].Kind))))
		return nil, typed
	}

	if state.Recommendation == nil {
		// The graph completed without errors yet produced nothing; the only
		// legal path here is the conditional edge with an empty retained set,
		// which screening always annotates. Treat as a defect.
		return nil, fmt.Errorf("pipeline completed without a recommendation or an error")
	}

	// Re-read the committed row rather than returning in-memory state.
	rec, err := s.recs.GetByID(ctx, state.Recommendation.ID, userID)
	if err != nil {
		return nil, &pipeline.PersistenceError{Reason: fmt.Sprintf("re-read after commit: %v", err)}
	}

	s.created.Add(ctx, 1)
	s.logger.Info("recommendation created",
		"user_id", userID, "recommendation_id", rec.ID, "citations", len(rec.Citations))
	return rec, nil
}

// GetRecommendation returns one of the requester's own recommendations.
// Other users' ids surface as repository.ErrNotFound.
func (s *RecommendationService) GetRecommendation(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	return s.recs.GetByID(ctx, id, userID)
}

// ListRecommendations returns the requester's history, newest first.
func (s *RecommendationService) ListRecommendations(ctx context.Context, userID string) ([]*models.Recommendation, error) {
	return s.recs.ListByUser(ctx, userID)
}
