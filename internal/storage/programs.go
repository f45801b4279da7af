package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// detailChunk bounds rows per multi-VALUES insert (6 params each) well
// under PostgreSQL's 65535 bind parameter limit.
const detailChunk = 1000

const (
	programColumns = `id, user_id, title, description, length, frequency, created_at`
	sessionColumns = `id, program_id, session_date, week_of_training, session_no, title, completed, length`
	detailColumns  = `id, session_id, exercise_name, exercise_no, set_number, reps, weight::float8, completed`
)

func scanProgram(row pgx.Row) (*models.ProgramRow, error) {
	var p models.ProgramRow
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.LengthWeeks, &p.SessionsPerWeek, &p.CreatedAt)
	return &p, err
}

func scanSession(row pgx.Row) (models.SessionRow, error) {
	var s models.SessionRow
	err := row.Scan(&s.ID, &s.ProgramID, &s.Date, &s.WeekNumber, &s.SessionNumber, &s.Title, &s.Completed, &s.LengthMinutes)
	return s, err
}

func scanDetail(row pgx.Row) (models.SessionDetailRow, error) {
	var d models.SessionDetailRow
	err := row.Scan(&d.ID, &d.SessionID, &d.ExerciseName, &d.ExerciseNo, &d.SetNumber, &d.Reps, &d.Weight, &d.Completed)
	return d, err
}

// CreateProgram inserts a program, its sessions and one session_details
// row per (exercise, set) in a single transaction. Exercise numbers count
// up within a session; set numbers restart at 1 for each exercise.
func (db *DB) CreateProgram(ctx context.Context, p models.NewProgram) (*models.ProgramDetail, error) {
	var detail *models.ProgramDetail
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		prog, err := scanProgram(tx.QueryRow(ctx,
			`INSERT INTO workout_programs (user_id, title, description, length, frequency)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+programColumns,
			p.UserID, p.Title, p.Description, p.LengthWeeks, p.SessionsPerWeek))
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("inserting workout program for user %d: %w", p.UserID, models.ErrNotFound)
			}
			return fmt.Errorf("inserting workout program: %w", err)
		}

		sessions, err := insertSessions(ctx, tx, prog.ID, p.Sessions)
		if err != nil {
			return err
		}

		rows := make([]models.SessionDetailRow, 0)
		for i, s := range p.Sessions {
			for exNo, ex := range s.Exercises {
				for set := 1; set <= ex.Sets; set++ {
					rows = append(rows, models.SessionDetailRow{
						SessionID:    sessions[i].ID,
						ExerciseName: ex.Name,
						ExerciseNo:   exNo + 1,
						SetNumber:    set,
						Reps:         ex.Reps,
						Weight:       ex.Weight,
					})
				}
			}
		}
		details, err := insertSessionDetails(ctx, tx, rows)
		if err != nil {
			return err
		}

		detail = &models.ProgramDetail{ProgramRow: *prog, Sessions: sessions, Details: details}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// insertSessions queues one INSERT ... RETURNING per session in a single
// batch round-trip. Returned rows are in input order.
func insertSessions(ctx context.Context, tx pgx.Tx, programID int64, sessions []models.NewSession) ([]models.SessionRow, error) {
	if len(sessions) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, s := range sessions {
		batch.Queue(
			`INSERT INTO sessions (program_id, session_date, week_of_training, completed, session_no, title, length)
			 VALUES ($1, $2, $3, FALSE, $4, $5, $6)
			 RETURNING `+sessionColumns,
			programID, s.Date, s.WeekNumber, s.SessionNumber, s.Title, s.LengthMinutes)
	}

	br := tx.SendBatch(ctx, batch)
	result := make([]models.SessionRow, 0, len(sessions))
	for range sessions {
		row, err := scanSession(br.QueryRow())
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("inserting session: %w", err)
		}
		result = append(result, row)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("closing session batch: %w", err)
	}
	return result, nil
}

// insertSessionDetails batch-inserts set rows and returns them with their
// ids, ordered by session, exercise number and set number.
func insertSessionDetails(ctx context.Context, tx pgx.Tx, rows []models.SessionDetailRow) ([]models.SessionDetailRow, error) {
	result := make([]models.SessionDetailRow, 0, len(rows))

	for start := 0; start < len(rows); start += detailChunk {
		end := min(start+detailChunk, len(rows))
		chunk := rows[start:end]

		query := `INSERT INTO session_details (session_id, exercise_name, exercise_no, set_number, reps, weight, completed) VALUES `
		args := make([]any, 0, len(chunk)*6)
		valueStrings := make([]string, 0, len(chunk))

		for i, r := range chunk {
			base := i * 6
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,FALSE)",
				base+1, base+2, base+3, base+4, base+5, base+6,
			))
			args = append(args, r.SessionID, r.ExerciseName, r.ExerciseNo, r.SetNumber, r.Reps, r.Weight)
		}
		query += strings.Join(valueStrings, ",") + " RETURNING " + detailColumns

		pgRows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("inserting session details: %w", err)
		}
		inserted, err := pgx.CollectRows(pgRows, func(r pgx.CollectableRow) (models.SessionDetailRow, error) {
			return scanDetail(r)
		})
		if err != nil {
			return nil, fmt.Errorf("inserting session details: %w", err)
		}
		result = append(result, inserted...)
	}

	sortDetails(result)
	return result, nil
}

func sortDetails(rows []models.SessionDetailRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.ExerciseNo != b.ExerciseNo {
			return a.ExerciseNo < b.ExerciseNo
		}
		return a.SetNumber < b.SetNumber
	})
}

// GetLatestProgram returns the user's most recently created program. Ids
// are assigned in creation order, so the highest id wins even when two
// programs share a created_at instant.
func (db *DB) GetLatestProgram(ctx context.Context, userID int) (*models.ProgramRow, error) {
	p, err := scanProgram(db.Pool.QueryRow(ctx,
		`SELECT `+programColumns+`
		 FROM workout_programs
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT 1`,
		userID))
	if err != nil {
		return nil, notFound(err, "querying latest program")
	}
	return p, nil
}

// ListSessions returns a program's sessions ordered by date.
func (db *DB) ListSessions(ctx context.Context, programID int64) ([]models.SessionRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE program_id = $1
		 ORDER BY session_date ASC, session_no ASC`,
		programID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.SessionRow, error) {
		return scanSession(r)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	return sessions, nil
}

// ListSessionDetails returns every set row of every session of a program.
func (db *DB) ListSessionDetails(ctx context.Context, programID int64) ([]models.SessionDetailRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT d.id, d.session_id, d.exercise_name, d.exercise_no, d.set_number, d.reps, d.weight::float8, d.completed
		 FROM session_details d
		 JOIN sessions s ON s.id = d.session_id
		 WHERE s.program_id = $1
		 ORDER BY d.session_id, d.exercise_no, d.set_number`,
		programID)
	if err != nil {
		return nil, fmt.Errorf("querying session details: %w", err)
	}
	details, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.SessionDetailRow, error) {
		return scanDetail(r)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning session details: %w", err)
	}
	return details, nil
}

// SetSessionCompleted marks a session of one of the user's programs.
func (db *DB) SetSessionCompleted(ctx context.Context, userID int, sessionID int64, completed bool) (*models.SessionRow, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx,
		`UPDATE sessions s SET completed = $3
		 FROM workout_programs p
		 WHERE p.id = s.program_id AND s.id = $1 AND p.user_id = $2
		 RETURNING s.id, s.program_id, s.session_date, s.week_of_training, s.session_no, s.title, s.completed, s.length`,
		sessionID, userID, completed))
	if err != nil {
		return nil, notFound(err, "updating session")
	}
	return &s, nil
}
