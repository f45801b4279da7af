package program

import (
	"context"

	"github.com/claude/liftplan/internal/models"
)

// Exercise modalities as tagged in the catalog.
const (
	ModalityStrength  = "strength training"
	ModalityEndurance = "cardiovascular and endurance training"
)

// goalModality maps a training goal to the catalog modality it trains.
// General Fitness maps to the empty modality, which only matches exercises
// explicitly tagged with an empty string.
var goalModality = map[models.Goal]string{
	models.GoalBuildMuscle:    ModalityStrength,
	models.GoalBuildStrength:  ModalityStrength,
	models.GoalPrepare10k:     ModalityEndurance,
	models.GoalGeneralFitness: "",
}

// ModalityForGoal returns the modality filter for a goal. Unknown goals
// map to the empty modality.
func ModalityForGoal(g models.Goal) string {
	return goalModality[g]
}

// ResolveAccessible returns the exercise names reachable through the user's
// equipment grants. An empty result is ErrNoAccessibleExercises.
func ResolveAccessible(ctx context.Context, src ExerciseSource, userID int) ([]string, error) {
	names, err := src.GetAccessibleExerciseNames(ctx, userID)
	if err != nil {
		return nil, storeErr("accessible exercises", err)
	}
	if len(names) == 0 {
		return nil, ErrNoAccessibleExercises
	}
	return names, nil
}

// FilterByGoal narrows accessible exercises to the goal's modality. An
// empty result is ErrNoGoalExercises.
func FilterByGoal(ctx context.Context, src ExerciseSource, accessible []string, goal models.Goal) ([]models.Exercise, error) {
	rows, err := src.QueryExercisesByNamesAndModality(ctx, accessible, ModalityForGoal(goal))
	if err != nil {
		return nil, storeErr("filter exercises", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoGoalExercises
	}
	return rows, nil
}
