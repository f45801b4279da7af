package models

import "time"

// ProgramRow is a workout_programs row.
type ProgramRow struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LengthWeeks     int       `json:"length_weeks"`
	SessionsPerWeek int       `json:"sessions_per_week"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionRow is a sessions row: one scheduled training day.
type SessionRow struct {
	ID            int64     `json:"id"`
	ProgramID     int64     `json:"program_id"`
	Date          time.Time `json:"session_date"`
	WeekNumber    int       `json:"week_of_training"`
	SessionNumber int       `json:"session_no"`
	Title         string    `json:"title"`
	Completed     bool      `json:"completed"`
	LengthMinutes int       `json:"length"`
}

// SessionDetailRow is a session_details row: one set of one exercise.
// Weight is nil when no working-weight heuristic applied.
type SessionDetailRow struct {
	ID           int64    `json:"id"`
	SessionID    int64    `json:"session_id"`
	ExerciseName string   `json:"exercise_name"`
	ExerciseNo   int      `json:"exercise_no"`
	SetNumber    int      `json:"set_number"`
	Reps         int      `json:"reps"`
	Weight       *float64 `json:"weight"`
	Completed    bool     `json:"completed"`
}

// ProgramDetail is a program with its sessions and flattened set rows.
type ProgramDetail struct {
	ProgramRow
	Sessions []SessionRow       `json:"sessions"`
	Details  []SessionDetailRow `json:"session_details"`
}

// PlannedExercise is one exercise slot of a scheduled session after
// volume annotation.
type PlannedExercise struct {
	Name   string   `json:"exercise"`
	Sets   int      `json:"sets"`
	Reps   int      `json:"reps"`
	Weight *float64 `json:"weight"`
}

// NewSession is a scheduled session ready for insertion.
type NewSession struct {
	Date          time.Time
	WeekNumber    int
	SessionNumber int
	Title         string
	LengthMinutes int
	Exercises     []PlannedExercise
}

// NewProgram is a fully annotated program ready for insertion. Storage
// expands every exercise into Sets session_details rows.
type NewProgram struct {
	UserID          int
	Title           string
	Description     string
	LengthWeeks     int
	SessionsPerWeek int
	Sessions        []NewSession
}

// SetKey is the natural key of a session_details row.
type SetKey struct {
	SessionID    int64
	ExerciseName string
	SetNumber    int
}

// SetUpdate overwrites the mutable fields of one set. A nil Weight keeps
// the stored weight.
type SetUpdate struct {
	Reps      int
	Weight    *float64
	Completed bool
}

// NewSet is a set appended to an exercise within a session.
type NewSet struct {
	SessionID    int64
	ExerciseName string
	Reps         int
	Weight       *float64
}
