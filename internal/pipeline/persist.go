package pipeline

import (
	"context"
	"fmt"

	"fitstack/backend/pkg/models"
)

// persistRecommendation assembles the final immutable record and writes it,
// with all citations, in one transaction. The orchestrating service re-reads
// the committed row; the state only carries the id it needs for that.
func (p *Pipeline) persistRecommendation(ctx context.Context, s State) State {
	var delta State

	rec := &models.Recommendation{
		ID:        p.newID(),
		UserID:    s.Request.UserID,
		WorkoutID: s.Request.WorkoutID,
		Content:   s.Summary,
		Reasoning: s.Reasoning,
		CreatedAt: p.now(),
	}
	for _, c := range s.Citations {
		c.ID = p.newID()
		c.RecommendationID = rec.ID
		rec.Citations = append(rec.Citations, c)
	}

	if err := p.recs.CreateWithCitations(ctx, rec); err != nil {
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "persist",
			Kind:    KindPersistence,
			Message: fmt.Sprintf("transactional write failed: %v", err),
		})
		return delta
	}

	delta.Recommendation = rec
	return delta
}
