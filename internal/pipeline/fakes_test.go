package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fitstack/backend/internal/logging"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

// fakeWorkoutStore serves workouts from a map keyed by id. Ownership is
// enforced the same way the real store does.
type fakeWorkoutStore struct {
	workouts map[string]*models.Workout
	err      error
}

func (f *fakeWorkoutStore) GetByID(ctx context.Context, id, userID string) (*models.Workout, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.workouts[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return w, nil
}

// fakeComplianceStore holds records keyed by lower-cased ingredient name. Set
// failAfter to make lookups error once the call counter passes it, which lets
// tests fail the store between screening and validation.
type fakeComplianceStore struct {
	mu      sync.Mutex
	records map[string][]models.ComplianceRecord
	calls   int

	err       error
	failAfter int // 0 means never fail by count
}

func (f *fakeComplianceStore) FindByIngredient(ctx context.Context, ingredient, authority string) ([]models.ComplianceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, fmt.Errorf("store unavailable")
	}
	var out []models.ComplianceRecord
	for _, rec := range f.records[strings.ToLower(ingredient)] {
		if rec.Authority == authority {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeComplianceStore) SearchIngredient(ctx context.Context, fragment, authority string) ([]models.ComplianceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, fmt.Errorf("store unavailable")
	}
	var out []models.ComplianceRecord
	needle := strings.ToLower(fragment)
	for name, recs := range f.records {
		if !strings.Contains(name, needle) {
			continue
		}
		for _, rec := range recs {
			if rec.Authority == authority {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (f *fakeComplianceStore) Upsert(ctx context.Context, rec *models.ComplianceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(rec.Ingredient)
	for i, existing := range f.records[key] {
		if existing.Authority == rec.Authority {
			f.records[key][i] = *rec
			return nil
		}
	}
	if f.records == nil {
		f.records = make(map[string][]models.ComplianceRecord)
	}
	f.records[key] = append(f.records[key], *rec)
	return nil
}

// setStatus rewrites every record for an ingredient, simulating a regulatory
// update landing mid-request.
func (f *fakeComplianceStore) setStatus(ingredient string, status models.ComplianceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(ingredient)
	for i := range f.records[key] {
		f.records[key][i].Status = status
	}
}

type fakeRecommendationStore struct {
	mu    sync.Mutex
	saved map[string]*models.Recommendation
	err   error
}

func (f *fakeRecommendationStore) CreateWithCitations(ctx context.Context, rec *models.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]*models.Recommendation)
	}
	f.saved[rec.ID] = rec
	return nil
}

func (f *fakeRecommendationStore) GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.saved[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRecommendationStore) ListByUser(ctx context.Context, userID string) ([]*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Recommendation
	for _, rec := range f.saved {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// scriptedGenerator returns its responses in order, one per call.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

func approvedRecord(ingredient string) models.ComplianceRecord {
	return complianceRecord(ingredient, models.StatusApproved)
}

func complianceRecord(ingredient string, status models.ComplianceStatus) models.ComplianceRecord {
	return models.ComplianceRecord{
		ID:         "rec-" + ingredient,
		Ingredient: ingredient,
		Status:     status,
		Authority:  "FDA",
	}
}

func testPipeline(workouts *fakeWorkoutStore, records *fakeComplianceStore, recs *fakeRecommendationStore, gen Generator) *Pipeline {
	if workouts == nil {
		workouts = &fakeWorkoutStore{}
	}
	if records == nil {
		records = &fakeComplianceStore{}
	}
	if recs == nil {
		recs = &fakeRecommendationStore{}
	}
	p := New(workouts, records, recs, gen, "FDA", logging.NewLogger("error"))
	counter := 0
	p.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	return p
}
