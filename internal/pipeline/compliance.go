package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fitstack/backend/pkg/models"
)

// canonicalNames maps known surface variants, mostly brand-qualified or
// form-qualified spellings, onto the canonical ingredient name that the
// compliance records are keyed by.
var canonicalNames = map[string]string{
	"creatine monohydrate":     "creatine",
	"micronized creatine":      "creatine",
	"creapure":                 "creatine",
	"whey protein isolate":     "whey protein",
	"whey protein concentrate": "whey protein",
	"whey isolate":             "whey protein",
	"caffeine anhydrous":       "caffeine",
	"l-citrulline":             "citrulline malate",
	"citrulline":               "citrulline malate",
	"glutamine":                "l-glutamine",
	"fish oil":                 "omega-3 fish oil",
	"omega-3":                  "omega-3 fish oil",
	"branched-chain amino acids": "bcaa",
	"vitamin d":                "vitamin d3",
	"ksm-66":                   "ashwagandha",
	"ashwagandha extract":      "ashwagandha",
}

// normalizeIngredient lower-cases and collapses whitespace so open-vocabulary
// model output keys consistently.
func normalizeIngredient(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// resolveIngredient resolves one ingredient name to its aggregate compliance
// status. Resolution tries, in order: exact case-insensitive match, the
// canonical name re-queried exactly, then substring match. Zero records
// across all three yields unknown, which is strictly worse than pending.
func (p *Pipeline) resolveIngredient(ctx context.Context, name string) (Resolution, error) {
	norm := normalizeIngredient(name)

	records, err := p.records.FindByIngredient(ctx, norm, p.authority)
	if err != nil {
		return Resolution{}, fmt.Errorf("exact lookup for %q: %w", norm, err)
	}

	if len(records) == 0 {
		if canonical, ok := canonicalNames[norm]; ok {
			records, err = p.records.FindByIngredient(ctx, canonical, p.authority)
			if err != nil {
				return Resolution{}, fmt.Errorf("canonical lookup for %q: %w", canonical, err)
			}
		}
	}

	if len(records) == 0 {
		records, err = p.records.SearchIngredient(ctx, norm, p.authority)
		if err != nil {
			return Resolution{}, fmt.Errorf("partial lookup for %q: %w", norm, err)
		}
	}

	if len(records) == 0 {
		return Resolution{Ingredient: norm, Status: models.StatusUnknown}, nil
	}

	return Resolution{
		Ingredient: norm,
		Status:     aggregateStatus(records),
		Record:     dominantRecord(records),
	}, nil
}

// aggregateStatus reduces multiple records for one ingredient to a single
// status by priority: banned > restricted > approved > pending.
func aggregateStatus(records []models.ComplianceRecord) models.ComplianceStatus {
	status := records[0].Status
	for _, rec := range records[1:] {
		if rec.Status.Severity() > status.Severity() {
			status = rec.Status
		}
	}
	return status
}

// dominantRecord returns the record carrying the aggregate status, for
// citation text derivation.
func dominantRecord(records []models.ComplianceRecord) *models.ComplianceRecord {
	best := records[0]
	for _, rec := range records[1:] {
		if rec.Status.Severity() > best.Status.Severity() {
			best = rec
		}
	}
	return &best
}

// screenCandidates fans resolution out across the de-duplicated ingredient
// set of all candidates, joins, then filters bundles. A bundle is retained
// iff every one of its ingredients is approved or pending; any banned,
// restricted, or unknown ingredient disqualifies the whole bundle. When
// nothing survives, a user-facing error with the rejection breakdown
// terminates the graph via the conditional edge.
func (p *Pipeline) screenCandidates(ctx context.Context, s State) State {
	var delta State

	unique := uniqueIngredients(s.Candidates)
	resolutions := make(map[string]Resolution, len(unique))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		lookupErr error
	)
	for _, name := range unique {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			res, err := p.resolveIngredient(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if lookupErr == nil {
					lookupErr = err
				}
				return
			}
			resolutions[res.Ingredient] = res
		}(name)
	}
	wg.Wait()

	if lookupErr != nil {
		// The store itself failed, so no admissibility claim can be made.
		// Fail closed rather than guessing.
		delta.Errors = append(delta.Errors, StageError{
			Stage:   "screen",
			Kind:    KindIntegrity,
			Message: fmt.Sprintf("could not verify regulatory status: %v", lookupErr),
		})
		return delta
	}

	delta.Resolutions = resolutions

	var retained []models.CandidateItem
	var counts RejectionCounts
	for _, candidate := range s.Candidates {
		worst := worstStatus(candidate, resolutions)
		if worst.Admissible() {
			retained = append(retained, candidate)
			continue
		}
		switch worst {
		case models.StatusBanned:
			counts.Banned++
		case models.StatusRestricted:
			counts.Restricted++
		default:
			counts.Unknown++
		}
	}

	delta.Rejections = counts
	if len(retained) == 0 {
		delta.Errors = append(delta.Errors, StageError{
			Stage: "screen",
			Kind:  KindNoCompliant,
			Message: fmt.Sprintf(
				"every candidate was disqualified: %d with banned ingredients, %d with restricted ingredients, %d with unverifiable ingredients",
				counts.Banned, counts.Restricted, counts.Unknown,
			),
			Counts: counts,
		})
		return delta
	}

	delta.Retained = retained
	p.logger.Info("compliance screening complete",
		"candidates", len(s.Candidates),
		"retained", len(retained),
		"ingredients", len(unique),
	)
	return delta
}

// worstStatus returns the highest-severity status among a candidate's
// ingredients. Missing resolutions count as unknown.
func worstStatus(candidate models.CandidateItem, resolutions map[string]Resolution) models.ComplianceStatus {
	worst := models.StatusPending
	for _, ing := range candidate.Ingredients {
		res, ok := resolutions[normalizeIngredient(ing)]
		status := models.StatusUnknown
		if ok {
			status = res.Status
		}
		if status.Severity() > worst.Severity() {
			worst = status
		}
	}
	return worst
}

// uniqueIngredients flattens all candidate ingredient lists into a sorted,
// de-duplicated set of normalized names.
func uniqueIngredients(candidates []models.CandidateItem) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range candidates {
		for _, ing := range c.Ingredients {
			norm := normalizeIngredient(ing)
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			names = append(names, norm)
		}
	}
	sort.Strings(names)
	return names
}
