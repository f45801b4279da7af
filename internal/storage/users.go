package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

const profileColumns = `id, email, first_name, last_name, date_of_birth, gender,
	EXTRACT(YEAR FROM age(date_of_birth))::int`

// GetUserProfile returns identity facts for a user, including age derived
// from the date of birth.
func (db *DB) GetUserProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	var p models.UserProfile
	err := db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = $1`, userID,
	).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Age)
	if err != nil {
		return nil, notFound(err, "querying user profile")
	}
	return &p, nil
}

// UpdateUserProfile applies a partial profile update. Nil fields keep
// their stored value.
func (db *DB) UpdateUserProfile(ctx context.Context, userID int, u models.ProfileUpdate) (*models.UserProfile, error) {
	var p models.UserProfile
	err := db.Pool.QueryRow(ctx, `
		UPDATE users SET
			first_name    = COALESCE($2, first_name),
			last_name     = COALESCE($3, last_name),
			date_of_birth = COALESCE($4::date, date_of_birth),
			gender        = COALESCE($5, gender)
		WHERE id = $1
		RETURNING `+profileColumns,
		userID, u.FirstName, u.LastName, u.DateOfBirth, u.Gender,
	).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Age)
	if err != nil {
		return nil, notFound(err, "updating user profile")
	}
	return &p, nil
}

// EnsureUser returns the id of the user with email, creating the row if
// it does not exist yet.
func (db *DB) EnsureUser(ctx context.Context, email string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ($1)
		 ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id`, email,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring user %q: %w", email, err)
	}
	return id, nil
}
