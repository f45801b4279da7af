package program

import (
	"context"

	"github.com/claude/liftplan/internal/models"
)

// FactSource reads the per-user facts the generator needs.
type FactSource interface {
	GetTrainingPreferences(ctx context.Context, userID int) (*models.TrainingPreferences, error)
	GetUserProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	GetLatestWeight(ctx context.Context, userID int) (float64, error)
}

// ExerciseSource resolves equipment grants and queries the exercise catalog.
type ExerciseSource interface {
	GetAccessibleExerciseNames(ctx context.Context, userID int) ([]string, error)
	QueryExercisesByNamesAndModality(ctx context.Context, names []string, modality string) ([]models.Exercise, error)
}

// ProgramStore persists programs and serves reads and set mutations.
// CreateProgram must be atomic: on error no program, session or detail row
// may remain.
type ProgramStore interface {
	CreateProgram(ctx context.Context, p models.NewProgram) (*models.ProgramDetail, error)
	GetLatestProgram(ctx context.Context, userID int) (*models.ProgramRow, error)
	ListSessions(ctx context.Context, programID int64) ([]models.SessionRow, error)
	ListSessionDetails(ctx context.Context, programID int64) ([]models.SessionDetailRow, error)
	UpdateSessionDetail(ctx context.Context, userID int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error)
	AddSessionDetail(ctx context.Context, userID int, s models.NewSet) (*models.SessionDetailRow, error)
	DeleteSessionDetail(ctx context.Context, userID int, key models.SetKey) (*models.SessionDetailRow, error)
	SetSessionCompleted(ctx context.Context, userID int, sessionID int64, completed bool) (*models.SessionRow, error)
}

// Store is everything the service needs from persistence. *storage.DB
// satisfies it.
type Store interface {
	FactSource
	ExerciseSource
	ProgramStore
}
