package pipeline

import "fmt"

// InputError means the request supplied neither a reference workout nor any
// goals, so there is nothing to generate from.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid request: " + e.Reason
}

// GenerationError means the generative model call failed or its output could
// not be parsed into candidates or an explanation.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Reason
}

// NoCompliantCandidatesError means every generated bundle was disqualified by
// compliance screening. Counts explain why, by the worst status per bundle.
type NoCompliantCandidatesError struct {
	Counts RejectionCounts
}

func (e *NoCompliantCandidatesError) Error() string {
	return fmt.Sprintf(
		"no compliant candidates: %d bundle(s) contained banned ingredients, %d restricted, %d with no compliance record",
		e.Counts.Banned, e.Counts.Restricted, e.Counts.Unknown,
	)
}

// IntegrityError means the final validation recheck found an ingredient that
// is no longer admissible or has no resolvable record, after filtering
// claimed otherwise. It indicates a race with a record update or a logic
// defect, and is fatal to the request.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "compliance integrity check failed: " + e.Reason
}

// PersistenceError means the transactional write of the recommendation and
// its citations failed. Nothing was persisted.
type PersistenceError struct {
	Reason string
}

func (e *PersistenceError) Error() string {
	return "failed to persist recommendation: " + e.Reason
}

// TypedError converts the first recorded stage error into one of the typed
// errors above. Returns nil when the state carries no errors.
func TypedError(s State) error {
	if len(s.Errors) == 0 {
		return nil
	}
	first := s.Errors[0]
	switch first.Kind {
	case KindInput:
		return &InputError{Reason: first.Message}
	case KindGeneration:
		return &GenerationError{Reason: first.Message}
	case KindNoCompliant:
		return &NoCompliantCandidatesError{Counts: first.Counts}
	case KindIntegrity:
		return &IntegrityError{Reason: first.Message}
	case KindPersistence:
		return &PersistenceError{Reason: first.Message}
	default:
		return fmt.Errorf("%s", first.Message)
	}
}
