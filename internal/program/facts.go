package program

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// Facts is the aggregate of everything generation reads about a user.
type Facts struct {
	UserID            int                 `json:"user_id"`
	Goal              models.Goal         `json:"training_goal"`
	FitnessLevel      models.FitnessLevel `json:"starting_fitness_level"`
	DaysPerWeek       int                 `json:"training_days_per_week"`
	MinutesPerSession int                 `json:"training_time_per_session"`
	Age               *int                `json:"age,omitempty"`
	Gender            models.Gender       `json:"gender"`
	BodyWeight        float64             `json:"body_weight"`
}

// LoadFacts reads preferences, profile and latest weight. Goal, level,
// gender and weight are all required; any one missing is ErrNotFound.
// Age is derived from the date of birth when present.
func LoadFacts(ctx context.Context, src FactSource, userID int) (*Facts, error) {
	prefs, err := src.GetTrainingPreferences(ctx, userID)
	if err != nil {
		return nil, storeErr("training preferences", err)
	}
	if prefs.Goal == "" || prefs.FitnessLevel == "" {
		return nil, fmt.Errorf("training goal or fitness level: %w", ErrNotFound)
	}

	profile, err := src.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, storeErr("user profile", err)
	}
	if profile.Gender == nil || *profile.Gender == "" {
		return nil, fmt.Errorf("gender: %w", ErrNotFound)
	}

	weight, err := src.GetLatestWeight(ctx, userID)
	if err != nil {
		return nil, storeErr("body weight", err)
	}

	return &Facts{
		UserID:            userID,
		Goal:              prefs.Goal,
		FitnessLevel:      prefs.FitnessLevel,
		DaysPerWeek:       prefs.DaysPerWeek,
		MinutesPerSession: prefs.MinutesPerSession,
		Age:               profile.Age,
		Gender:            models.Gender(*profile.Gender),
		BodyWeight:        weight,
	}, nil
}
