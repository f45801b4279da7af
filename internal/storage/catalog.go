package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// ImportStats counts rows written by ImportCatalog.
type ImportStats struct {
	Equipment        int `json:"equipment"`
	AccessCategories int `json:"access_categories"`
	EquipmentAccess  int `json:"equipment_access"`
	Exercises        int `json:"exercises"`
	ExerciseLinks    int `json:"exercise_equipment"`
}

// ImportCatalog upserts equipment, access categories and exercises in one
// transaction. Existing exercises get their taxonomy overwritten and their
// equipment links replaced. Nothing is deleted that the catalog omits.
func (db *DB) ImportCatalog(ctx context.Context, c *models.Catalog) (*ImportStats, error) {
	stats := &ImportStats{}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		for _, name := range c.AllEquipment() {
			batch.Queue(`INSERT INTO equipment (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
			stats.Equipment++
		}

		categories := make([]string, 0, len(c.AccessCategories))
		for name := range c.AccessCategories {
			categories = append(categories, name)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			batch.Queue(`INSERT INTO access_categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, cat)
			stats.AccessCategories++
			for _, eq := range c.AccessCategories[cat] {
				batch.Queue(
					`INSERT INTO equipment_access (access_category_name, equipment_name)
					 VALUES ($1, $2) ON CONFLICT DO NOTHING`, cat, eq)
				stats.EquipmentAccess++
			}
		}

		for _, ex := range c.Exercises {
			batch.Queue(
				`INSERT INTO exercises (name, primary_muscle_group, movement_type, exercise_modalities)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (name) DO UPDATE SET
					primary_muscle_group = EXCLUDED.primary_muscle_group,
					movement_type        = EXCLUDED.movement_type,
					exercise_modalities  = EXCLUDED.exercise_modalities`,
				ex.Name, ex.PrimaryMuscleGroup, ex.MovementType, ex.Modality)
			batch.Queue(`DELETE FROM exercise_equipment WHERE exercise_name = $1`, ex.Name)
			stats.Exercises++
			for _, eq := range ex.Equipment {
				batch.Queue(
					`INSERT INTO exercise_equipment (exercise_name, equipment_name)
					 VALUES ($1, $2) ON CONFLICT DO NOTHING`, ex.Name, eq)
				stats.ExerciseLinks++
			}
		}

		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("importing catalog: unknown equipment: %w", err)
			}
			return fmt.Errorf("importing catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
