package pipeline

import (
	"context"
	"fmt"
	"strings"

	"fitstack/backend/pkg/models"
)

const explainPromptTemplate = `You are a sports-nutrition assistant for a fitness app.

The following supplements have already passed regulatory screening. Write
guidance for the user.

FORMAT
- Start with a line "SUMMARY:" followed by a 2-3 sentence overall recommendation.
- Then a line "DETAILS:" followed by one short paragraph per supplement
  covering when to take it and any cautions.
- Plain text only. Do not add or remove supplements.

SUPPLEMENTS
%s`

// explainAndCite makes the second model call over the surviving bundles and
// builds exactly one citation per unique surviving ingredient. The narrative
// and the citations are independent: citation text is derived from the
// compliance record, never from model output.
func (p *Pipeline) explainAndCite(ctx context.Context, s State) State {
	var delta State

	raw, err := p.llm.Generate(ctx, buildExplainPrompt(s.Retained))
	if err != nil {
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "explain",
			Kind:    KindGeneration,
			Message: fmt.Sprintf("explanation call failed: %v", err),
		})
		return delta
	}

	summary, details := splitExplanation(raw)
	if summary == "" && details == "" {
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "explain",
			Kind:    KindGeneration,
			Message: "model returned an empty explanation",
		})
		return delta
	}
	if summary == "" {
		summary = details
	}

	delta.Summary = summary
	delta.Reasoning = details
	delta.Citations = buildCitations(uniqueIngredients(s.Retained), s.Resolutions)
	return delta
}

func buildExplainPrompt(retained []models.CandidateItem) string {
	var b strings.Builder
	for _, c := range retained {
		fmt.Fprintf(&b, "- %s (%s): %s. Ingredients: %s\n",
			c.Name, c.Category, c.Rationale, strings.Join(c.Ingredients, ", "))
	}
	return fmt.Sprintf(explainPromptTemplate, b.String())
}

// splitExplanation extracts the summary and detail sections. When the model
// omits the section markers, the text is split heuristically at the first
// blank line instead of failing outright.
func splitExplanation(raw string) (summary, details string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ""
	}

	upper := strings.ToUpper(text)
	sumIdx := strings.Index(upper, "SUMMARY:")
	detIdx := strings.Index(upper, "DETAILS:")

	if sumIdx >= 0 && detIdx > sumIdx {
		summary = strings.TrimSpace(text[sumIdx+len("SUMMARY:") : detIdx])
		details = strings.TrimSpace(text[detIdx+len("DETAILS:"):])
		return summary, details
	}
	if sumIdx >= 0 {
		summary = strings.TrimSpace(text[sumIdx+len("SUMMARY:"):])
		return summary, summary
	}

	// No markers: first paragraph is the summary, the rest is detail.
	if idx := strings.Index(text, "\n\n"); idx > 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx:])
	}
	return text, text
}

// buildCitations produces one citation per unique surviving ingredient. An
// ingredient appearing in several retained bundles still gets a single
// citation. Ingredients without a backing record should not reach this stage,
// but if one does it is cited with a manual-review flag rather than dropped.
func buildCitations(ingredients []string, resolutions map[string]Resolution) []models.Citation {
	citations := make([]models.Citation, 0, len(ingredients))
	for _, name := range ingredients {
		res, ok := resolutions[name]
		if !ok || res.Record == nil {
			citations = append(citations, models.Citation{
				Ingredient:        name,
				Text:              fmt.Sprintf("%s: no compliance record on file; requires manual verification", name),
				NeedsManualReview: true,
			})
			continue
		}
		citations = append(citations, models.Citation{
			Ingredient:         name,
			ComplianceRecordID: &res.Record.ID,
			Text:               citationText(res.Record),
			SourceURL:          res.Record.SourceURL,
		})
	}
	return citations
}

// citationText derives the human-readable citation deterministically from
// the compliance record.
func citationText(rec *models.ComplianceRecord) string {
	text := fmt.Sprintf("%s: %s status %q as of %s",
		rec.Ingredient, rec.Authority, rec.Status, rec.LastVerifiedAt.Format("2006-01-02"))
	if rec.AuthorityStatus != nil && *rec.AuthorityStatus != "" {
		text += fmt.Sprintf(" (%s)", *rec.AuthorityStatus)
	}
	if rec.Notes != nil && *rec.Notes != "" {
		text += ". " + *rec.Notes
	}
	return text
}
