package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fitstack/backend/pkg/models"
)

// ingredientVocabulary is the closed set of regulator-recognized ingredient
// names the model is instructed to draw from. Generation may still return
// names outside this list (or synonyms of it); screening is what actually
// gates admissibility.
var ingredientVocabulary = []string{
	"creatine",
	"whey protein",
	"casein protein",
	"caffeine",
	"beta-alanine",
	"citrulline malate",
	"l-glutamine",
	"taurine",
	"ashwagandha",
	"magnesium",
	"zinc",
	"vitamin d3",
	"omega-3 fish oil",
	"electrolytes",
	"bcaa",
}

const candidatePromptTemplate = `You are a sports-nutrition assistant for a fitness app.

Suggest supplement options for the user described below.

RULES
- Only use ingredients from this list: %s.
- Return between 3 and 5 candidates.
- Respond with ONE valid JSON array only (no markdown, no code fences, no commentary). Shape:
[
  {"name": string, "category": string, "ingredients": [string], "rationale": string}
]

USER
%s`

// generateCandidates makes the single generation call and parses its output.
// It never consults the compliance store. A failed call or unparseable
// response records a generation error and returns no candidates, so the
// engine's termination check can run.
func (p *Pipeline) generateCandidates(ctx context.Context, s State) State {
	var delta State

	raw, err := p.llm.Generate(ctx, buildCandidatePrompt(s))
	if err != nil {
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "generate",
			Kind:    KindGeneration,
			Message: fmt.Sprintf("model call failed: %v", err),
		})
		return delta
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		p.logger.Warn("unparseable model output", "error", err, "raw_len", len(raw))
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "generate",
			Kind:    KindGeneration,
			Message: "model returned no parseable candidates",
		})
		return delta
	}

	delta.Candidates = candidates
	return delta
}

func buildCandidatePrompt(s State) string {
	var b strings.Builder

	if s.Context != nil {
		fmt.Fprintf(&b, "Training activity: %s", s.Context.Name)
		if s.Context.Description != "" {
			fmt.Fprintf(&b, " — %s", s.Context.Description)
		}
		b.WriteString("\n")
		if len(s.Context.TargetAreas) > 0 {
			fmt.Fprintf(&b, "Target areas: %s\n", strings.Join(s.Context.TargetAreas, ", "))
		}
	}
	if len(s.Request.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(s.Request.Goals, ", "))
	}
	if len(s.Request.HealthConditions) > 0 {
		fmt.Fprintf(&b, "Health conditions to respect: %s\n", strings.Join(s.Request.HealthConditions, ", "))
	}

	return fmt.Sprintf(candidatePromptTemplate, strings.Join(ingredientVocabulary, ", "), b.String())
}

// parseCandidates extracts the first well-formed JSON array from the raw
// model response. Models wrap output in prose or code fences often enough
// that scanning for the structured block is the dependable path.
func parseCandidates(raw string) ([]models.CandidateItem, error) {
	block, ok := firstJSONBlock(raw, '[', ']')
	if !ok {
		// Some models return a single object with a "candidates" field.
		obj, objOK := firstJSONBlock(raw, '{', '}')
		if !objOK {
			return nil, fmt.Errorf("no JSON block found")
		}
		var wrapper struct {
			Candidates []models.CandidateItem `json:"candidates"`
		}
		if err := json.Unmarshal([]byte(obj), &wrapper); err != nil {
			return nil, fmt.Errorf("decode object block: %w", err)
		}
		return validCandidates(wrapper.Candidates)
	}

	var items []models.CandidateItem
	if err := json.Unmarshal([]byte(block), &items); err != nil {
		return nil, fmt.Errorf("decode array block: %w", err)
	}
	return validCandidates(items)
}

func validCandidates(items []models.CandidateItem) ([]models.CandidateItem, error) {
	var out []models.CandidateItem
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || len(item.Ingredients) == 0 {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable candidates in response")
	}
	return out, nil
}

// firstJSONBlock returns the first balanced open..close region of raw,
// ignoring brackets inside JSON strings.
func firstJSONBlock(raw string, open, close byte) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case open:
			if start < 0 {
				start = i
			}
			depth++
		case close:
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
