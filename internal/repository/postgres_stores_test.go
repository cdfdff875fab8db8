package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"fitstack/backend/pkg/models"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatal(err)
	}

	return pool
}

func TestPostgresComplianceStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(t)
	store := NewPostgresComplianceStore(pool)

	notes := "review in progress"
	require.NoError(t, store.Upsert(ctx, &models.ComplianceRecord{
		Ingredient:     "Creatine",
		Status:         models.StatusApproved,
		Authority:      "FDA",
		LastVerifiedAt: time.Now(),
	}))
	require.NoError(t, store.Upsert(ctx, &models.ComplianceRecord{
		Ingredient:     "ashwagandha",
		Status:         models.StatusPending,
		Authority:      "FDA",
		Notes:          &notes,
		LastVerifiedAt: time.Now(),
	}))
	require.NoError(t, store.Upsert(ctx, &models.ComplianceRecord{
		Ingredient:     "creatine",
		Status:         models.StatusApproved,
		Authority:      "EFSA",
		LastVerifiedAt: time.Now(),
	}))

	t.Run("FindByIngredient is case-insensitive and authority-scoped", func(t *testing.T) {
		records, err := store.FindByIngredient(ctx, "CREATINE", "FDA")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Creatine", records[0].Ingredient)
		assert.Equal(t, models.StatusApproved, records[0].Status)
		assert.Equal(t, "FDA", records[0].Authority)
	})

	t.Run("FindByIngredient misses return empty", func(t *testing.T) {
		records, err := store.FindByIngredient(ctx, "ephedra", "FDA")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("SearchIngredient matches substrings", func(t *testing.T) {
		records, err := store.SearchIngredient(ctx, "ashwa", "FDA")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "ashwagandha", records[0].Ingredient)
		require.NotNil(t, records[0].Notes)
		assert.Equal(t, notes, *records[0].Notes)
	})

	t.Run("Upsert replaces on ingredient and authority conflict", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, &models.ComplianceRecord{
			Ingredient:     "ashwagandha",
			Status:         models.StatusRestricted,
			Authority:      "FDA",
			LastVerifiedAt: time.Now(),
		}))

		records, err := store.FindByIngredient(ctx, "ashwagandha", "FDA")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, models.StatusRestricted, records[0].Status)
	})
}

func TestPostgresWorkoutStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(t)
	store := NewPostgresWorkoutStore(pool)

	workout := &models.Workout{
		ID:          uuid.New().String(),
		UserID:      "u1",
		Name:        "Push Day",
		Description: "Upper-body strength session",
		Exercises: []models.Exercise{
			{ID: uuid.New().String(), Name: "Bench Press", TargetAreas: []string{"chest", "triceps"}, Sets: 4, Reps: 8},
			{ID: uuid.New().String(), Name: "Dips", TargetAreas: []string{"chest"}, Sets: 3, Reps: 12},
		},
	}
	require.NoError(t, store.CreateWorkout(ctx, workout))

	t.Run("GetByID returns workout with exercises", func(t *testing.T) {
		got, err := store.GetByID(ctx, workout.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Push Day", got.Name)
		require.Len(t, got.Exercises, 2)
		assert.Equal(t, []string{"chest", "triceps"}, got.TargetAreas())
	})

	t.Run("GetByID hides other users' workouts", func(t *testing.T) {
		_, err := store.GetByID(ctx, workout.ID, "intruder")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetByID on unknown id", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New().String(), "u1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresRecommendationStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(t)
	store := NewPostgresRecommendationStore(pool)

	newRec := func(userID string, createdAt time.Time) *models.Recommendation {
		id := uuid.New().String()
		return &models.Recommendation{
			ID:        id,
			UserID:    userID,
			Content:   "take creatine",
			Reasoning: "supports strength work",
			CreatedAt: createdAt,
			Citations: []models.Citation{
				{
					ID:               uuid.New().String(),
					RecommendationID: id,
					Ingredient:       "creatine",
					Text:             "creatine: FDA status \"approved\" as of 2026-01-02",
				},
				{
					ID:                uuid.New().String(),
					RecommendationID:  id,
					Ingredient:        "ashwagandha",
					Text:              "ashwagandha: no compliance record on file; requires manual verification",
					NeedsManualReview: true,
				},
			},
		}
	}

	t.Run("CreateWithCitations and GetByID", func(t *testing.T) {
		rec := newRec("u1", time.Now())
		require.NoError(t, store.CreateWithCitations(ctx, rec))

		got, err := store.GetByID(ctx, rec.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.Content, got.Content)
		require.Len(t, got.Citations, 2)
		// Citations come back ordered by ingredient.
		assert.Equal(t, "ashwagandha", got.Citations[0].Ingredient)
		assert.True(t, got.Citations[0].NeedsManualReview)
		assert.Equal(t, "creatine", got.Citations[1].Ingredient)
	})

	t.Run("GetByID hides other users' recommendations", func(t *testing.T) {
		rec := newRec("u1", time.Now())
		require.NoError(t, store.CreateWithCitations(ctx, rec))

		_, err := store.GetByID(ctx, rec.ID, "intruder")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("failed citation insert rolls back the whole write", func(t *testing.T) {
		rec := newRec("u2", time.Now())
		// Duplicate citation id forces a primary-key violation on the second
		// insert, after the recommendation row already went in.
		rec.Citations[1].ID = rec.Citations[0].ID

		err := store.CreateWithCitations(ctx, rec)
		require.Error(t, err)

		_, err = store.GetByID(ctx, rec.ID, "u2")
		assert.ErrorIs(t, err, ErrNotFound, "recommendation row must not survive a failed citation insert")

		var count int
		require.NoError(t, pool.QueryRow(ctx,
			"SELECT count(*) FROM citations WHERE recommendation_id = $1", rec.ID).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("ListByUser returns newest first without citations", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)
		older := newRec("u3", base)
		newer := newRec("u3", base.Add(time.Minute))
		require.NoError(t, store.CreateWithCitations(ctx, older))
		require.NoError(t, store.CreateWithCitations(ctx, newer))

		list, err := store.ListByUser(ctx, "u3")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
		assert.Empty(t, list[0].Citations)
	})
}
