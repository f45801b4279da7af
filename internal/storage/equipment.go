package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// Grant is the outcome of granting an access category to a user.
type Grant struct {
	AccessCategory string   `json:"access_category"`
	Equipment      []string `json:"equipment"`
	NewlyGranted   int64    `json:"newly_granted"`
}

// GrantAccessCategory gives the user every equipment item of the category.
// Existing grants are kept. An unknown or empty category is ErrNotFound.
func (db *DB) GrantAccessCategory(ctx context.Context, userID int, category string) (*Grant, error) {
	g := &Grant{AccessCategory: category}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT equipment_name FROM equipment_access
			 WHERE access_category_name = $1
			 ORDER BY equipment_name`, category)
		if err != nil {
			return fmt.Errorf("querying equipment access: %w", err)
		}
		g.Equipment, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scanning equipment access: %w", err)
		}
		if len(g.Equipment) == 0 {
			return fmt.Errorf("access category %q: %w", category, models.ErrNotFound)
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO user_equipment (user_id, equipment_name)
			 SELECT $1, unnest($2::text[])
			 ON CONFLICT (user_id, equipment_name) DO NOTHING`,
			userID, g.Equipment)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("granting equipment to user %d: %w", userID, models.ErrNotFound)
			}
			return fmt.Errorf("granting equipment: %w", err)
		}
		g.NewlyGranted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetAccessibleExerciseNames returns the distinct exercises reachable via
// the user's equipment grants.
func (db *DB) GetAccessibleExerciseNames(ctx context.Context, userID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ee.exercise_name
		 FROM user_equipment ue
		 JOIN exercise_equipment ee ON ue.equipment_name = ee.equipment_name
		 WHERE ue.user_id = $1
		 ORDER BY ee.exercise_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying accessible exercises: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning accessible exercises: %w", err)
	}
	return names, nil
}

// QueryExercisesByNamesAndModality returns catalog rows whose name is in
// names and whose modality equals modality exactly. The empty modality
// only matches rows tagged with the empty string.
func (db *DB) QueryExercisesByNamesAndModality(ctx context.Context, names []string, modality string) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT name, primary_muscle_group, movement_type, exercise_modalities
		 FROM exercises
		 WHERE name = ANY($1::text[]) AND exercise_modalities = $2
		 ORDER BY name`,
		names, modality)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.Name, &e.PrimaryMuscleGroup, &e.MovementType, &e.Modality); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
