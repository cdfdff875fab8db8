// Package models defines the domain models shared across the service.
package models

import (
	"errors"
	"time"
)

// ComplianceStatus is the regulatory standing of an ingredient with an authority.
type ComplianceStatus string

const (
	StatusApproved   ComplianceStatus = "approved"
	StatusPending    ComplianceStatus = "pending"
	StatusRestricted ComplianceStatus = "restricted"
	StatusBanned     ComplianceStatus = "banned"
	// StatusUnknown means no record exists for the ingredient. It is never
	// stored; it only appears as an aggregate when resolution finds nothing.
	StatusUnknown ComplianceStatus = "unknown"
)

// Severity orders statuses for aggregation: a higher value dominates when an
// ingredient has multiple records. Unknown sits above restricted because the
// absence of any record is treated fail-closed.
func (s ComplianceStatus) Severity() int {
	switch s {
	case StatusBanned:
		return 4
	case StatusUnknown:
		return 3
	case StatusRestricted:
		return 2
	case StatusApproved:
		return 1
	case StatusPending:
		return 0
	default:
		return 3
	}
}

// Admissible reports whether an ingredient with this aggregate status may
// appear in a recommendation.
func (s ComplianceStatus) Admissible() bool {
	return s == StatusApproved || s == StatusPending
}

// ComplianceRecord is long-lived reference data maintained by an
// administrative path and read-only to the recommendation pipeline.
// Uniqueness is keyed by (ingredient, authority).
type ComplianceRecord struct {
	ID              string           `json:"id" db:"id"`
	Ingredient      string           `json:"ingredient" db:"ingredient"`
	Status          ComplianceStatus `json:"status" db:"status"`
	Authority       string           `json:"authority" db:"authority"`
	AuthorityStatus *string          `json:"authority_status,omitempty" db:"authority_status"`
	SourceURL       *string          `json:"source_url,omitempty" db:"source_url"`
	LastVerifiedAt  time.Time        `json:"last_verified_at" db:"last_verified_at"`
	Notes           *string          `json:"notes,omitempty" db:"notes"`
}

// CandidateItem is one supplement proposed by the generative model together
// with its ingredient list. It is admitted or rejected as a whole.
type CandidateItem struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Rationale   string   `json:"rationale"`
	Ingredients []string `json:"ingredients"`
}

// Citation links one recommended ingredient to the compliance record that
// justified surfacing it. ComplianceRecordID is nil when no record existed at
// citation time; such citations are flagged for manual review instead of
// being dropped.
type Citation struct {
	ID                 string  `json:"id" db:"id"`
	RecommendationID   string  `json:"recommendation_id" db:"recommendation_id"`
	Ingredient         string  `json:"ingredient" db:"ingredient"`
	ComplianceRecordID *string `json:"compliance_record_id,omitempty" db:"compliance_record_id"`
	Text               string  `json:"text" db:"text"`
	SourceURL          *string `json:"source_url,omitempty" db:"source_url"`
	NeedsManualReview  bool    `json:"needs_manual_review" db:"needs_manual_review"`
}

// Recommendation is the immutable audit record written once at the end of a
// successful pipeline run, together with all of its citations.
type Recommendation struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	WorkoutID *string    `json:"workout_id,omitempty" db:"workout_id"`
	Content   string     `json:"content" db:"content"`
	Reasoning string     `json:"reasoning" db:"reasoning"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Citations []Citation `json:"citations"`
}

// RecommendationRequest is the request-scoped input to the pipeline.
type RecommendationRequest struct {
	UserID           string   `json:"-"`
	WorkoutID        *string  `json:"workout_id,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	HealthConditions []string `json:"health_conditions,omitempty"`
}

// ErrEmptyRequest is returned when a request names neither a workout nor any
// free-text goals, leaving nothing to seed generation with.
var ErrEmptyRequest = errors.New("request must include a workout id or at least one goal")

// Validate enforces the request invariant.
func (r *RecommendationRequest) Validate() error {
	if (r.WorkoutID == nil || *r.WorkoutID == "") && len(r.Goals) == 0 {
		return ErrEmptyRequest
	}
	return nil
}
