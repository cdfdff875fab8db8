// Command seed provisions a development database: it can apply the schema and
// load a starter set of compliance records and a sample workout.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"fitstack/backend/internal/config"
	"fitstack/backend/internal/logging"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

var (
	initSchema    bool
	sampleWorkout bool
	sampleUserID  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the development database",
		RunE:  runSeed,
	}
	rootCmd.Flags().BoolVar(&initSchema, "init-schema", false, "apply the database schema before seeding")
	rootCmd.Flags().BoolVar(&sampleWorkout, "sample-workout", false, "create a sample workout for the dev user")
	rootCmd.Flags().StringVar(&sampleUserID, "user", "dev-user", "user id to own seeded workouts")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if initSchema {
		if _, err := pool.Exec(ctx, repository.Schema); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		logger.Info("Schema applied")
	}

	records := repository.NewPostgresComplianceStore(pool)
	for _, rec := range starterRecords(cfg.Compliance.Authority) {
		if err := records.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("seeding record %q: %w", rec.Ingredient, err)
		}
		logger.Info("Seeded compliance record", "ingredient", rec.Ingredient, "status", rec.Status)
	}

	if sampleWorkout {
		workouts := repository.NewPostgresWorkoutStore(pool)
		w := &models.Workout{
			ID:          uuid.New().String(),
			UserID:      sampleUserID,
			Name:        "Push Day",
			Description: "Upper-body strength session",
			Exercises: []models.Exercise{
				{ID: uuid.New().String(), Name: "Bench Press", TargetAreas: []string{"chest", "triceps"}, Sets: 4, Reps: 8},
				{ID: uuid.New().String(), Name: "Overhead Press", TargetAreas: []string{"shoulders", "triceps"}, Sets: 3, Reps: 10},
				{ID: uuid.New().String(), Name: "Dips", TargetAreas: []string{"chest", "triceps"}, Sets: 3, Reps: 12},
			},
		}
		if err := workouts.CreateWorkout(ctx, w); err != nil {
			return fmt.Errorf("seeding workout: %w", err)
		}
		logger.Info("Seeded workout", "id", w.ID, "user", sampleUserID)
	}

	logger.Info("Seeding complete!")
	return nil
}

// starterRecords covers the generation vocabulary plus a few substances that
// must never pass screening, so a fresh dev database exercises every branch.
func starterRecords(authority string) []*models.ComplianceRecord {
	now := time.Now()
	rec := func(ingredient string, status models.ComplianceStatus, notes string) *models.ComplianceRecord {
		r := &models.ComplianceRecord{
			ID:             uuid.New().String(),
			Ingredient:     ingredient,
			Status:         status,
			Authority:      authority,
			LastVerifiedAt: now,
		}
		if notes != "" {
			r.Notes = &notes
		}
		return r
	}

	return []*models.ComplianceRecord{
		rec("creatine", models.StatusApproved, ""),
		rec("whey protein", models.StatusApproved, ""),
		rec("casein protein", models.StatusApproved, ""),
		rec("caffeine", models.StatusApproved, "upper intake guidance applies"),
		rec("beta-alanine", models.StatusApproved, ""),
		rec("citrulline malate", models.StatusApproved, ""),
		rec("l-glutamine", models.StatusApproved, ""),
		rec("taurine", models.StatusApproved, ""),
		rec("ashwagandha", models.StatusPending, "review in progress"),
		rec("magnesium", models.StatusApproved, ""),
		rec("zinc", models.StatusApproved, ""),
		rec("vitamin d3", models.StatusApproved, ""),
		rec("omega-3 fish oil", models.StatusApproved, ""),
		rec("electrolytes", models.StatusApproved, ""),
		rec("bcaa", models.StatusPending, "efficacy review open"),
		rec("yohimbine", models.StatusRestricted, "prescription-only in several markets"),
		rec("ephedra", models.StatusBanned, "prohibited in dietary supplements"),
		rec("dmaa", models.StatusBanned, "prohibited stimulant"),
	}
}
