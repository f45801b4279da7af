package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// ErrIncomplete is returned when a first preferences submission omits a
// required field.
var ErrIncomplete = errors.New("incomplete submission")

const preferenceColumns = `user_id, training_goal, starting_fitness_level,
	training_days_per_week, training_time_per_session, updated_at`

func scanPreferences(row pgx.Row) (*models.TrainingPreferences, error) {
	var p models.TrainingPreferences
	var goal, level string
	if err := row.Scan(&p.UserID, &goal, &level, &p.DaysPerWeek, &p.MinutesPerSession, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Goal = models.Goal(goal)
	p.FitnessLevel = models.FitnessLevel(level)
	return &p, nil
}

// GetTrainingPreferences returns the stored preferences for a user.
func (db *DB) GetTrainingPreferences(ctx context.Context, userID int) (*models.TrainingPreferences, error) {
	p, err := scanPreferences(db.Pool.QueryRow(ctx,
		`SELECT `+preferenceColumns+` FROM training_preferences WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "querying training preferences")
	}
	return p, nil
}

// UpsertTrainingPreferences updates the user's preferences in place, or
// creates them when none exist. Creation requires a complete submission.
// The bool result reports whether a row was created.
func (db *DB) UpsertTrainingPreferences(ctx context.Context, userID int, u models.PreferencesUpdate) (*models.TrainingPreferences, bool, error) {
	var goal, level *string
	if u.Goal != nil {
		s := string(*u.Goal)
		goal = &s
	}
	if u.FitnessLevel != nil {
		s := string(*u.FitnessLevel)
		level = &s
	}

	var prefs *models.TrainingPreferences
	var created bool
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPreferences(tx.QueryRow(ctx, `
			UPDATE training_preferences SET
				training_goal             = COALESCE($2, training_goal),
				starting_fitness_level    = COALESCE($3, starting_fitness_level),
				training_days_per_week    = COALESCE($4, training_days_per_week),
				training_time_per_session = COALESCE($5, training_time_per_session),
				updated_at                = NOW()
			WHERE user_id = $1
			RETURNING `+preferenceColumns,
			userID, goal, level, u.DaysPerWeek, u.MinutesPerSession))
		if err == nil {
			prefs = p
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("updating training preferences: %w", err)
		}

		if !u.Complete() {
			return fmt.Errorf("creating training preferences: %w", ErrIncomplete)
		}
		p, err = scanPreferences(tx.QueryRow(ctx, `
			INSERT INTO training_preferences (user_id, training_goal, starting_fitness_level,
				training_days_per_week, training_time_per_session)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+preferenceColumns,
			userID, goal, level, u.DaysPerWeek, u.MinutesPerSession))
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("creating training preferences for user %d: %w", userID, models.ErrNotFound)
			}
			return fmt.Errorf("creating training preferences: %w", err)
		}
		prefs, created = p, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return prefs, created, nil
}
