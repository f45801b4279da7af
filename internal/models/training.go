package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by storage when a requested row does not exist
// or is not owned by the requesting user.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by storage when a write loses a race on a
// unique key and retrying did not help.
var ErrConflict = errors.New("conflict")

// Goal is a user's training goal as stored in training_preferences.
type Goal string

const (
	GoalBuildMuscle    Goal = "Build Muscle"
	GoalBuildStrength  Goal = "Build Strength"
	GoalPrepare10k     Goal = "Prepare for a 10k"
	GoalGeneralFitness Goal = "General Fitness"
)

// Goals lists every known training goal.
var Goals = []Goal{GoalBuildMuscle, GoalBuildStrength, GoalPrepare10k, GoalGeneralFitness}

// ParseGoal validates a stored or submitted goal string.
func ParseGoal(s string) (Goal, error) {
	for _, g := range Goals {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown training goal %q", s)
}

// FitnessLevel is the user's self-reported starting level.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "Beginner"
	LevelIntermediate FitnessLevel = "Intermediate"
	LevelAdvanced     FitnessLevel = "Advanced"
)

// FitnessLevels lists every known fitness level.
var FitnessLevels = []FitnessLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ParseFitnessLevel validates a stored or submitted level string.
func ParseFitnessLevel(s string) (FitnessLevel, error) {
	for _, l := range FitnessLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown fitness level %q", s)
}

// Gender as recorded on the user profile. Only Male and Female drive the
// working-weight heuristic; other values are stored verbatim.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// TrainingPreferences is the training_preferences row for one user.
type TrainingPreferences struct {
	UserID            int          `json:"user_id"`
	Goal              Goal         `json:"training_goal"`
	FitnessLevel      FitnessLevel `json:"starting_fitness_level"`
	DaysPerWeek       int          `json:"training_days_per_week"`
	MinutesPerSession int          `json:"training_time_per_session"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// PreferencesUpdate carries a partial preferences submission. Nil fields
// keep their stored value.
type PreferencesUpdate struct {
	Goal              *Goal
	FitnessLevel      *FitnessLevel
	DaysPerWeek       *int
	MinutesPerSession *int
}

// Complete reports whether every field is set, which is required for the
// first submission.
func (u PreferencesUpdate) Complete() bool {
	return u.Goal != nil && u.FitnessLevel != nil && u.DaysPerWeek != nil && u.MinutesPerSession != nil
}

// UserProfile holds the identity facts the program generator reads.
type UserProfile struct {
	ID          int        `json:"id"`
	Email       string     `json:"email"`
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	Age         *int       `json:"age"`
}

// ProfileUpdate carries a partial profile update. Nil fields are kept.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	Gender      *string
}

// Measurement is one physical_measurements row.
type Measurement struct {
	ID       int64     `json:"id"`
	UserID   int       `json:"user_id"`
	DateTime time.Time `json:"date_time"`
	Weight   float64   `json:"weight"`
	Height   int       `json:"height"`
}

// Exercise is a row of the static exercise catalog.
type Exercise struct {
	Name               string `json:"name" yaml:"name"`
	PrimaryMuscleGroup string `json:"primary_muscle_group" yaml:"primary_muscle_group"`
	MovementType       string `json:"movement_type" yaml:"movement_type"`
	Modality           string `json:"exercise_modality" yaml:"modality"`
}
