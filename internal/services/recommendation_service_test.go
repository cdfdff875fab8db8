package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitstack/backend/internal/logging"
	"fitstack/backend/internal/pipeline"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

const testCandidateJSON = `[
  {"name": "Strength Stack", "category": "performance", "ingredients": ["creatine"], "rationale": "supports strength work"}
]`

const testExplainText = "SUMMARY: Creatine fits your goals.\nDETAILS: Take it daily with water."

type stubWorkoutStore struct{}

func (s *stubWorkoutStore) GetByID(ctx context.Context, id, userID string) (*models.Workout, error) {
	return nil, repository.ErrNotFound
}

type stubComplianceStore struct {
	status models.ComplianceStatus
}

func (s *stubComplianceStore) FindByIngredient(ctx context.Context, ingredient, authority string) ([]models.ComplianceRecord, error) {
	return []models.ComplianceRecord{{
		ID:         "rec-" + ingredient,
		Ingredient: ingredient,
		Status:     s.status,
		Authority:  authority,
	}}, nil
}

func (s *stubComplianceStore) SearchIngredient(ctx context.Context, fragment, authority string) ([]models.ComplianceRecord, error) {
	return nil, nil
}

func (s *stubComplianceStore) Upsert(ctx context.Context, rec *models.ComplianceRecord) error {
	return nil
}

type stubRecommendationStore struct {
	mu      sync.Mutex
	saved   map[string]*models.Recommendation
	getErr  error
	listErr error
}

func (s *stubRecommendationStore) CreateWithCitations(ctx context.Context, rec *models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]*models.Recommendation)
	}
	s.saved[rec.ID] = rec
	return nil
}

func (s *stubRecommendationStore) GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.saved[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (s *stubRecommendationStore) ListByUser(ctx context.Context, userID string) ([]*models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*models.Recommendation
	for _, rec := range s.saved {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubGenerator struct {
	responses []string
	calls     int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.calls >= len(g.responses) {
		return "", fmt.Errorf("unexpected call %d", g.calls)
	}
	resp := g.responses[g.calls]
	g.calls++
	if strings.HasPrefix(resp, "ERROR:") {
		return "", fmt.Errorf("%s", strings.TrimPrefix(resp, "ERROR:"))
	}
	return resp, nil
}

func newTestService(records *stubComplianceStore, recs *stubRecommendationStore, gen *stubGenerator) *RecommendationService {
	logger := logging.NewLogger("error")
	p := pipeline.New(&stubWorkoutStore{}, records, recs, gen, "FDA", logger)
	return NewRecommendationService(p, recs, logger)
}

func TestRecommendSuccess(t *testing.T) {
	recs := &stubRecommendationStore{}
	svc := newTestService(
		&stubComplianceStore{status: models.StatusApproved},
		recs,
		&stubGenerator{responses: []string{testCandidateJSON, testExplainText}},
	)

	rec, err := svc.Recommend(context.Background(), "u1", models.RecommendationRequest{Goals: []string{"strength"}})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "Creatine fits your goals.", rec.Content)
	require.Len(t, rec.Citations, 1)
	assert.Equal(t, "creatine", rec.Citations[0].Ingredient)

	// The returned value is the committed row, not pipeline state.
	stored, getErr := recs.GetByID(context.Background(), rec.ID, "u1")
	require.NoError(t, getErr)
	assert.Equal(t, stored, rec)
}

func TestRecommendEmptyRequest(t *testing.T) {
	svc := newTestService(&stubComplianceStore{status: models.StatusApproved}, &stubRecommendationStore{}, &stubGenerator{})

	_, err := svc.Recommend(context.Background(), "u1", models.RecommendationRequest{})
	require.Error(t, err)

	var inputErr *pipeline.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestRecommendNoCompliantCandidates(t *testing.T) {
	svc := newTestService(
		&stubComplianceStore{status: models.StatusBanned},
		&stubRecommendationStore{},
		&stubGenerator{responses: []string{testCandidateJSON}},
	)

	_, err := svc.Recommend(context.Background(), "u1", models.RecommendationRequest{Goals: []string{"strength"}})
	require.Error(t, err)

	var noCompliant *pipeline.NoCompliantCandidatesError
	require.ErrorAs(t, err, &noCompliant)
	assert.Equal(t, 1, noCompliant.Counts.Banned)
}

func TestRecommendGenerationFailure(t *testing.T) {
	svc := newTestService(
		&stubComplianceStore{status: models.StatusApproved},
		&stubRecommendationStore{},
		&stubGenerator{responses: []string{"ERROR:gateway timeout"}},
	)

	_, err := svc.Recommend(context.Background(), "u1", models.RecommendationRequest{Goals: []string{"strength"}})
	require.Error(t, err)

	var genErr *pipeline.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestRecommendReReadFailureIsPersistenceError(t *testing.T) {
	recs := &stubRecommendationStore{getErr: fmt.Errorf("connection lost")}
	svc := newTestService(
		&stubComplianceStore{status: models.StatusApproved},
		recs,
		&stubGenerator{responses: []string{testCandidateJSON, testExplainText}},
	)

	_, err := svc.Recommend(context.Background(), "u1", models.RecommendationRequest{Goals: []string{"strength"}})
	require.Error(t, err)

	var persistErr *pipeline.PersistenceError
	assert.ErrorAs(t, err, &persistErr)
}

func TestGetRecommendationScopesToOwner(t *testing.T) {
	recs := &stubRecommendationStore{saved: map[string]*models.Recommendation{
		"r1": {ID: "r1", UserID: "u1"},
	}}
	svc := newTestService(&stubComplianceStore{status: models.StatusApproved}, recs, &stubGenerator{})

	rec, err := svc.GetRecommendation(context.Background(), "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)

	_, err = svc.GetRecommendation(context.Background(), "r1", "intruder")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListRecommendations(t *testing.T) {
	recs := &stubRecommendationStore{saved: map[string]*models.Recommendation{
		"r1": {ID: "r1", UserID: "u1"},
		"r2": {ID: "r2", UserID: "u2"},
	}}
	svc := newTestService(&stubComplianceStore{status: models.StatusApproved}, recs, &stubGenerator{})

	list, err := svc.ListRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)
}
