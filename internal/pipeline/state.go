package pipeline

import (
	"fitstack/backend/pkg/models"
)

// ErrorKind categorizes a stage failure. The orchestrating service maps the
// first error in the accumulator onto the typed errors in errors.go.
type ErrorKind string

const (
	KindInput        ErrorKind = "input"
	KindGeneration   ErrorKind = "generation"
	KindNoCompliant  ErrorKind = "no_compliant_candidates"
	KindIntegrity    ErrorKind = "compliance_integrity"
	KindPersistence  ErrorKind = "persistence"
)

// StageError is one failure recorded by a stage. Stages append these and
// return normally; the engine's halt predicate ends the run.
type StageError struct {
	Stage   string
	Kind    ErrorKind
	Message string
	// Counts carries the banned/restricted/unknown breakdown when Kind is
	// KindNoCompliant.
	Counts RejectionCounts
}

func (e StageError) Error() string {
	return e.Stage + ": " + e.Message
}

// RejectionCounts breaks down why candidate bundles were disqualified, by
// the worst status found among each bundle's ingredients.
type RejectionCounts struct {
	Banned     int
	Restricted int
	Unknown    int
}

func (c RejectionCounts) total() int {
	return c.Banned + c.Restricted + c.Unknown
}

// ActivityContext is the enriched workout context seeded into generation.
// Absent when the request named no workout or the lookup found nothing.
type ActivityContext struct {
	Name        string
	Description string
	TargetAreas []string
}

// Resolution is the outcome of resolving one ingredient against the
// compliance store. Record is the highest-severity record backing Status,
// nil when Status is unknown.
type Resolution struct {
	Ingredient string
	Status     models.ComplianceStatus
	Record     *models.ComplianceRecord
}

// State is the accumulator threaded through every stage. All fields merge
// last-write-wins except Errors and Warnings, which append across stages.
type State struct {
	Request models.RecommendationRequest

	Context     *ActivityContext
	Candidates  []models.CandidateItem
	Resolutions map[string]Resolution // keyed by normalized ingredient name
	Retained    []models.CandidateItem
	Rejections  RejectionCounts

	Summary   string
	Reasoning string
	Citations []models.Citation

	Recommendation *models.Recommendation

	Errors   []StageError
	Warnings []string
}

// Merge is the State reducer: non-zero delta fields overwrite, Errors and
// Warnings concatenate. Declared here, next to the fields, so the merge
// policy and the struct evolve together.
func Merge(prev, delta State) State {
	out := prev

	if delta.Request.UserID != "" {
		out.Request = delta.Request
	}
	if delta.Context != nil {
		out.Context = delta.Context
	}
	if delta.Candidates != nil {
		out.Candidates = delta.Candidates
	}
	if delta.Resolutions != nil {
		out.Resolutions = delta.Resolutions
	}
	if delta.Retained != nil {
		out.Retained = delta.Retained
	}
	if delta.Rejections.total() > 0 {
		out.Rejections = delta.Rejections
	}
	if delta.Summary != "" {
		out.Summary = delta.Summary
	}
	if delta.Reasoning != "" {
		out.Reasoning = delta.Reasoning
	}
	if delta.Citations != nil {
		out.Citations = delta.Citations
	}
	if delta.Recommendation != nil {
		out.Recommendation = delta.Recommendation
	}

	out.Errors = append(out.Errors, delta.Errors...)
	out.Warnings = append(out.Warnings, delta.Warnings...)

	return out
}

// Failed reports whether any stage has recorded an error. Used as the
// engine's halt predicate.
func Failed(s State) bool {
	return len(s.Errors) > 0
}
