package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

const returningDetail = ` RETURNING d.id, d.session_id, d.exercise_name, d.exercise_no, d.set_number, d.reps, d.weight::float8, d.completed`

// UpdateSessionDetail overwrites reps and completed of the set identified
// by key, provided the session belongs to the user. Weight is overwritten
// only when u.Weight is set.
func (db *DB) UpdateSessionDetail(ctx context.Context, userID int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error) {
	d, err := scanDetail(db.Pool.QueryRow(ctx,
		`UPDATE session_details d SET reps = $4, weight = COALESCE($5::numeric, d.weight), completed = $6
		 FROM sessions s
		 JOIN workout_programs p ON p.id = s.program_id
		 WHERE d.session_id = s.id AND p.user_id = $7
		   AND d.session_id = $1 AND d.exercise_name = $2 AND d.set_number = $3`+returningDetail,
		key.SessionID, key.ExerciseName, key.SetNumber, u.Reps, u.Weight, u.Completed, userID))
	if err != nil {
		return nil, notFound(err, "updating session detail")
	}
	return &d, nil
}

// addDetailAttempts bounds retries when a concurrent append takes the same
// set number.
const addDetailAttempts = 3

// AddSessionDetail appends a set numbered one past the highest existing
// set of that exercise in the session (1 if there is none). A new exercise
// is numbered after the session's last exercise. Losing a race for the set
// number is retried; if every attempt loses, models.ErrConflict is returned.
func (db *DB) AddSessionDetail(ctx context.Context, userID int, ns models.NewSet) (*models.SessionDetailRow, error) {
	for attempt := 1; ; attempt++ {
		d, err := scanDetail(db.Pool.QueryRow(ctx,
			`INSERT INTO session_details AS d (session_id, exercise_name, exercise_no, set_number, reps, weight, completed)
			 SELECT $1::bigint, $2::text,
				COALESCE(
					(SELECT MIN(exercise_no) FROM session_details WHERE session_id = $1 AND exercise_name = $2),
					(SELECT COALESCE(MAX(exercise_no), 0) + 1 FROM session_details WHERE session_id = $1)),
				(SELECT COALESCE(MAX(set_number), 0) + 1 FROM session_details WHERE session_id = $1 AND exercise_name = $2),
				$3::int, $4::numeric, FALSE
			 WHERE EXISTS (
				SELECT 1 FROM sessions s
				JOIN workout_programs p ON p.id = s.program_id
				WHERE s.id = $1 AND p.user_id = $5)`+returningDetail,
			ns.SessionID, ns.ExerciseName, ns.Reps, ns.Weight, userID))
		if err == nil {
			return &d, nil
		}
		if !isUniqueViolation(err) {
			return nil, notFound(err, "adding session detail")
		}
		if attempt == addDetailAttempts {
			return nil, fmt.Errorf("adding session detail: %w", models.ErrConflict)
		}
	}
}

// DeleteSessionDetail removes exactly the set identified by key. Other
// sets are not renumbered.
func (db *DB) DeleteSessionDetail(ctx context.Context, userID int, key models.SetKey) (*models.SessionDetailRow, error) {
	d, err := scanDetail(db.Pool.QueryRow(ctx,
		`DELETE FROM session_details d
		 USING sessions s, workout_programs p
		 WHERE s.id = d.session_id AND p.id = s.program_id AND p.user_id = $4
		   AND d.session_id = $1 AND d.exercise_name = $2 AND d.set_number = $3`+returningDetail,
		key.SessionID, key.ExerciseName, key.SetNumber, userID))
	if err != nil {
		return nil, notFound(err, "deleting session detail")
	}
	return &d, nil
}
