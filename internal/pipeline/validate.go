package pipeline

import (
	"context"
	"fmt"
)

// validateCompliance is the defense-in-depth recheck before persistence. It
// re-derives the ingredient set from the retained bundles and re-runs the
// admissibility rule against live records, independent of the screening
// stage's cached resolutions. A violation here means a record changed since
// screening or a logic defect upstream; either way it is fatal to the
// request and never downgraded. Redundant in the common case, and kept
// anyway: screening and citation generation are separate responsibilities.
func (p *Pipeline) validateCompliance(ctx context.Context, s State) State {
	var delta State

	for _, name := range uniqueIngredients(s.Retained) {
		res, err := p.resolveIngredient(ctx, name)
		if err != nil {
			delta.Errors = append(delta.Errors, StageError{
				Stage:   "validate",
				Kind:    KindIntegrity,
				Message: fmt.Sprintf("could not re-verify %q: %v", name, err),
			})
			return delta
		}
		if res.Record == nil {
			delta.Errors = append(delta.Errors, StageError{
				Stage:   "validate",
				Kind:    KindIntegrity,
				Message: fmt.Sprintf("ingredient %q has no resolvable compliance record", name),
			})
			return delta
		}
		if !res.Status.Admissible() {
			delta.Errors = append(delta.Errors, StageError{
				Stage:   "validate",
				Kind:    KindIntegrity,
				Message: fmt.Sprintf("ingredient %q is no longer admissible (status %s)", name, res.Status),
			})
			return delta
		}
	}

	return delta
}
