package program

import (
	"fmt"
	"math"

	"github.com/claude/liftplan/internal/models"
)

// SetsForDuration returns sets per exercise for a session length in minutes.
func SetsForDuration(minutes int) int {
	switch {
	case minutes <= 30:
		return 1
	case minutes <= 45:
		return 2
	default:
		return 3
	}
}

// RepsForGoal returns reps per set for a training goal.
func RepsForGoal(g models.Goal) int {
	switch g {
	case models.GoalBuildMuscle:
		return 8
	case models.GoalBuildStrength:
		return 5
	default:
		return 12
	}
}

type weightKey struct {
	level  models.FitnessLevel
	gender models.Gender
}

// weightRatios is the bodyweight multiplier per (level, gender). Pairs not
// listed have no heuristic.
var weightRatios = map[weightKey]float64{
	{models.LevelBeginner, models.GenderMale}:   0.5,
	{models.LevelBeginner, models.GenderFemale}: 0.3,
}

// WorkingWeight returns the starting working weight, rounded to 0.01 kg.
// The second result is false when no heuristic exists for the pair.
func WorkingWeight(level models.FitnessLevel, gender models.Gender, bodyWeight float64) (float64, bool) {
	ratio, ok := weightRatios[weightKey{level, gender}]
	if !ok {
		return 0, false
	}
	return math.Round(bodyWeight*ratio*100) / 100, true
}

// mapExercises returns a copy of s with f applied to every exercise.
func (s Schedule) mapExercises(f func(models.PlannedExercise) models.PlannedExercise) Schedule {
	out := make(Schedule, len(s))
	for i, sess := range s {
		ex := make([]models.PlannedExercise, len(sess.Exercises))
		for j, e := range sess.Exercises {
			ex[j] = f(e)
		}
		sess.Exercises = ex
		out[i] = sess
	}
	return out
}

// WithSets returns a copy of s with every exercise set to n sets.
func (s Schedule) WithSets(n int) Schedule {
	return s.mapExercises(func(e models.PlannedExercise) models.PlannedExercise {
		e.Sets = n
		return e
	})
}

// WithReps returns a copy of s with every exercise set to n reps.
func (s Schedule) WithReps(n int) Schedule {
	return s.mapExercises(func(e models.PlannedExercise) models.PlannedExercise {
		e.Reps = n
		return e
	})
}

// WithWeight returns a copy of s with every exercise given weight w. A nil
// w leaves weights unset.
func (s Schedule) WithWeight(w *float64) Schedule {
	return s.mapExercises(func(e models.PlannedExercise) models.PlannedExercise {
		if w == nil {
			e.Weight = nil
			return e
		}
		v := *w
		e.Weight = &v
		return e
	})
}

// Annotate runs the sets, reps and weight passes in order. When no weight
// heuristic applies the weights stay nil and a warning is returned.
func Annotate(s Schedule, f *Facts) (Schedule, []string) {
	out := s.WithSets(SetsForDuration(f.MinutesPerSession)).WithReps(RepsForGoal(f.Goal))

	w, ok := WorkingWeight(f.FitnessLevel, f.Gender, f.BodyWeight)
	if !ok {
		warning := fmt.Sprintf("no working-weight heuristic for %s / %s; weights left unset", f.FitnessLevel, f.Gender)
		return out.WithWeight(nil), []string{warning}
	}
	return out.WithWeight(&w), nil
}
