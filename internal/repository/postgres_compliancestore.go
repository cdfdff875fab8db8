package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitstack/backend/pkg/models"
)

// PostgresComplianceStore is a PostgreSQL implementation of the ComplianceStore interface.
type PostgresComplianceStore struct {
	db *pgxpool.Pool
}

// NewPostgresComplianceStore creates a new PostgresComplianceStore.
func NewPostgresComplianceStore(db *pgxpool.Pool) *PostgresComplianceStore {
	return &PostgresComplianceStore{db: db}
}

const recordColumns = "id, ingredient, status, authority, authority_status, source_url, last_verified_at, notes"

// FindByIngredient returns records matching the ingredient name exactly,
// ignoring case, for the given authority.
func (s *PostgresComplianceStore) FindByIngredient(ctx context.Context, ingredient, authority string) ([]models.ComplianceRecord, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+recordColumns+" FROM compliance_records WHERE lower(ingredient) = lower($1) AND authority = $2",
		ingredient, authority,
	)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// SearchIngredient returns records whose ingredient name contains the
// fragment, ignoring case.
func (s *PostgresComplianceStore) SearchIngredient(ctx context.Context, fragment, authority string) ([]models.ComplianceRecord, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+recordColumns+" FROM compliance_records WHERE ingredient ILIKE '%' || $1 || '%' AND authority = $2",
		fragment, authority,
	)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// Upsert creates or replaces the record keyed by (ingredient, authority).
func (s *PostgresComplianceStore) Upsert(ctx context.Context, rec *models.ComplianceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO compliance_records (id, ingredient, status, authority, authority_status, source_url, last_verified_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ingredient, authority) DO UPDATE SET
			status = EXCLUDED.status,
			authority_status = EXCLUDED.authority_status,
			source_url = EXCLUDED.source_url,
			last_verified_at = EXCLUDED.last_verified_at,
			notes = EXCLUDED.notes`,
		rec.ID, rec.Ingredient, rec.Status, rec.Authority, rec.AuthorityStatus, rec.SourceURL, rec.LastVerifiedAt, rec.Notes,
	)
	return err
}

func scanRecords(rows pgx.Rows) ([]models.ComplianceRecord, error) {
	defer rows.Close()

	var records []models.ComplianceRecord
	for rows.Next() {
		var rec models.ComplianceRecord
		err := rows.Scan(&rec.ID, &rec.Ingredient, &rec.Status, &rec.Authority,
			&rec.AuthorityStatus, &rec.SourceURL, &rec.LastVerifiedAt, &rec.Notes)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
