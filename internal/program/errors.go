package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// Error kinds returned by the pipeline. Callers match them with errors.Is.
var (
	// ErrNotFound covers missing preferences, profile facts, weight,
	// programs, sessions and sets.
	ErrNotFound = models.ErrNotFound

	// ErrNoAccessibleExercises means the user's equipment grants reach no
	// exercise at all.
	ErrNoAccessibleExercises = fmt.Errorf("no accessible exercises: %w", ErrNotFound)

	// ErrNoGoalExercises means accessible exercises exist but none match the
	// modality of the training goal.
	ErrNoGoalExercises = fmt.Errorf("no exercises match the training goal: %w", ErrNotFound)

	// ErrConflict means a concurrent write took the same set number.
	ErrConflict = models.ErrConflict

	ErrNoMatchingTemplate   = errors.New("no workout template for goal and fitness level")
	ErrIncompleteTaxonomy   = errors.New("template slot has no candidate exercise")
	ErrUnsupportedFrequency = errors.New("unsupported training frequency")
	ErrPersistence          = errors.New("persistence failure")
	ErrInvalidInput         = errors.New("invalid input")
)

// storeErr classifies an error returned by a Store call. NotFound,
// Conflict and context errors pass through; everything else becomes
// ErrPersistence.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	}
}

// resultLabel maps an outcome to a low-cardinality metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNoMatchingTemplate):
		return "no_template"
	case errors.Is(err, ErrIncompleteTaxonomy):
		return "incomplete_taxonomy"
	case errors.Is(err, ErrUnsupportedFrequency):
		return "unsupported_frequency"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
