package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// InsertMeasurement records a weight/height measurement timestamped now.
func (db *DB) InsertMeasurement(ctx context.Context, userID int, weight float64, height int) (*models.Measurement, error) {
	var m models.Measurement
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO physical_measurements (user_id, weight, height)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, date_time, weight::float8, height`,
		userID, weight, height,
	).Scan(&m.ID, &m.UserID, &m.DateTime, &m.Weight, &m.Height)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("inserting measurement for user %d: %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("inserting measurement: %w", err)
	}
	return &m, nil
}

// GetLatestWeight returns the most recent body weight for a user.
func (db *DB) GetLatestWeight(ctx context.Context, userID int) (float64, error) {
	var weight float64
	err := db.Pool.QueryRow(ctx,
		`SELECT weight::float8
		 FROM physical_measurements
		 WHERE user_id = $1
		 ORDER BY date_time DESC, id DESC
		 LIMIT 1`,
		userID,
	).Scan(&weight)
	if err != nil {
		return 0, notFound(err, "querying latest weight")
	}
	return weight, nil
}
