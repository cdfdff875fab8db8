package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fitstack/backend/internal/logging"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

// Generator is the narrow view of the generative-model service the pipeline
// consumes: one prompt in, unstructured text out. Responses are parsed
// defensively; the model is never trusted to honor the output contract.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline owns the stage implementations and their dependencies. One
// instance serves all requests; per-request state lives in State.
type Pipeline struct {
	workouts  repository.WorkoutStore
	records   repository.ComplianceStore
	recs      repository.RecommendationStore
	llm       Generator
	authority string
	logger    *logging.Logger

	engine *Engine[State]

	// overridable for tests
	now   func() time.Time
	newID func() string
}

// New wires the stage graph. The only conditional edge sits after screening:
// downstream stages run only when at least one bundle survived; everything
// else is unconditional sequence, and a non-empty error list halts the graph
// wherever it occurs.
func New(workouts repository.WorkoutStore, records repository.ComplianceStore, recs repository.RecommendationStore, llm Generator, authority string, logger *logging.Logger) *Pipeline {
	p := &Pipeline{
		workouts:  workouts,
		records:   records,
		recs:      recs,
		llm:       llm,
		authority: authority,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}

	eng := NewEngine(Merge, Failed)
	eng.Add("assemble", p.assembleContext)
	eng.Add("generate", p.generateCandidates)
	eng.Add("screen", p.screenCandidates)
	eng.Add("explain", p.explainAndCite)
	eng.Add("validate", p.validateCompliance)
	eng.Add("persist", p.persistRecommendation)
	eng.StartAt("assemble")
	eng.Connect("assemble", "generate", nil)
	eng.Connect("generate", "screen", nil)
	eng.Connect("screen", "explain", func(s State) bool { return len(s.Retained) > 0 })
	eng.Connect("explain", "validate", nil)
	eng.Connect("validate", "persist", nil)
	p.engine = eng

	return p
}

// Run executes the full graph for one request. Stage failures are recorded
// in the returned state; the error return covers cancellation and engine
// misuse only.
func (p *Pipeline) Run(ctx context.Context, req models.RecommendationRequest) (State, error) {
	return p.engine.Run(ctx, State{Request: req})
}
