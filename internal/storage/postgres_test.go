package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// openTestDB connects to the database named by LIFTPLAN_TEST_DSN, applying
// migrations first. Tests using it are skipped when the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("LIFTPLAN_TEST_DSN")
	if dsn == "" {
		t.Skip("LIFTPLAN_TEST_DSN not set")
	}
	if err := RunMigrations(dsn, "../../migrations"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func newTestUser(t *testing.T, db *DB) int {
	t.Helper()
	email := fmt.Sprintf("storage-test-%d@example.com", time.Now().UnixNano())
	id, err := db.EnsureUser(context.Background(), email)
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }

func TestPostgresProfileAndGrants(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, db)

	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	p, err := db.UpdateUserProfile(ctx, userID, models.ProfileUpdate{DateOfBirth: &dob, Gender: ptr("Female")})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if p.Gender == nil || *p.Gender != "Female" || p.Age == nil {
		t.Errorf("profile = %+v, want gender and age set", p)
	}

	if _, err := db.InsertMeasurement(ctx, userID, 61.5, 168); err != nil {
		t.Fatalf("InsertMeasurement: %v", err)
	}
	w, err := db.GetLatestWeight(ctx, userID)
	if err != nil || w != 61.5 {
		t.Errorf("GetLatestWeight = %v, %v; want 61.5", w, err)
	}
	if _, err := db.InsertMeasurement(ctx, -1, 70, 170); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("InsertMeasurement unknown user err = %v, want ErrNotFound", err)
	}

	cat := &models.Catalog{
		AccessCategories: map[string][]string{"Storage Test Gym": {"Storage Test Rack"}},
		Exercises: []models.CatalogExercise{{
			Exercise: models.Exercise{
				Name:               "Storage Test Squat",
				PrimaryMuscleGroup: "Quadriceps",
				MovementType:       "Squat",
				Modality:           "Hypertrophy",
			},
			Equipment: []string{"Storage Test Rack"},
		}},
	}
	if _, err := db.ImportCatalog(ctx, cat); err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	g, err := db.GrantAccessCategory(ctx, userID, "Storage Test Gym")
	if err != nil {
		t.Fatalf("GrantAccessCategory: %v", err)
	}
	if g.NewlyGranted != 1 {
		t.Errorf("NewlyGranted = %d, want 1", g.NewlyGranted)
	}
	if _, err := db.GrantAccessCategory(ctx, userID, "No Such Category"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown category err = %v, want ErrNotFound", err)
	}

	names, err := db.GetAccessibleExerciseNames(ctx, userID)
	if err != nil {
		t.Fatalf("GetAccessibleExerciseNames: %v", err)
	}
	if len(names) != 1 || names[0] != "Storage Test Squat" {
		t.Errorf("accessible = %v, want [Storage Test Squat]", names)
	}
	exs, err := db.QueryExercisesByNamesAndModality(ctx, names, "Hypertrophy")
	if err != nil {
		t.Fatalf("QueryExercisesByNamesAndModality: %v", err)
	}
	if len(exs) != 1 || exs[0].MovementType != "Squat" {
		t.Errorf("exercises = %+v", exs)
	}
}

func TestPostgresProgramLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, db)
	otherID := newTestUser(t, db)

	if _, err := db.GetLatestProgram(ctx, userID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetLatestProgram before create err = %v, want ErrNotFound", err)
	}

	start := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	detail, err := db.CreateProgram(ctx, models.NewProgram{
		UserID:          userID,
		Title:           "Test Program",
		Description:     "storage test",
		LengthWeeks:     1,
		SessionsPerWeek: 2,
		Sessions: []models.NewSession{
			{
				Date: start, WeekNumber: 1, SessionNumber: 1, Title: "Day 1", LengthMinutes: 60,
				Exercises: []models.PlannedExercise{
					{Name: "Squat", Sets: 3, Reps: 8, Weight: ptr(30.0)},
					{Name: "Plank", Sets: 2, Reps: 12},
				},
			},
			{
				Date: start.AddDate(0, 0, 2), WeekNumber: 1, SessionNumber: 2, Title: "Day 2", LengthMinutes: 60,
				Exercises: []models.PlannedExercise{{Name: "Row", Sets: 3, Reps: 10, Weight: ptr(25.0)}},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if len(detail.Sessions) != 2 || len(detail.Details) != 8 {
		t.Fatalf("created %d sessions, %d details; want 2, 8", len(detail.Sessions), len(detail.Details))
	}

	latest, err := db.GetLatestProgram(ctx, userID)
	if err != nil {
		t.Fatalf("GetLatestProgram: %v", err)
	}
	if latest.ID != detail.ID {
		t.Errorf("latest id = %d, want %d", latest.ID, detail.ID)
	}
	sessions, err := db.ListSessions(ctx, latest.ID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 || !sessions[0].Date.Equal(start) || sessions[1].SessionNumber != 2 {
		t.Errorf("sessions = %+v", sessions)
	}
	day1 := sessions[0].ID

	details, err := db.ListSessionDetails(ctx, latest.ID)
	if err != nil {
		t.Fatalf("ListSessionDetails: %v", err)
	}
	var plankWeights int
	for _, d := range details {
		if d.ExerciseName == "Plank" && d.Weight != nil {
			plankWeights++
		}
	}
	if plankWeights != 0 {
		t.Errorf("plank sets with weight = %d, want 0", plankWeights)
	}

	squat2 := models.SetKey{SessionID: day1, ExerciseName: "Squat", SetNumber: 2}
	upd, err := db.UpdateSessionDetail(ctx, userID, squat2, models.SetUpdate{Reps: 6, Completed: true})
	if err != nil {
		t.Fatalf("UpdateSessionDetail: %v", err)
	}
	if upd.Reps != 6 || !upd.Completed || upd.Weight == nil || *upd.Weight != 30 {
		t.Errorf("updated = %+v, want reps 6, completed, weight 30 kept", upd)
	}
	upd, err = db.UpdateSessionDetail(ctx, userID, squat2, models.SetUpdate{Reps: 6, Weight: ptr(32.5), Completed: true})
	if err != nil {
		t.Fatalf("UpdateSessionDetail weight: %v", err)
	}
	if upd.Weight == nil || *upd.Weight != 32.5 {
		t.Errorf("weight = %v, want 32.5", upd.Weight)
	}
	if _, err := db.UpdateSessionDetail(ctx, otherID, squat2, models.SetUpdate{Reps: 1}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}

	added, err := db.AddSessionDetail(ctx, userID, models.NewSet{SessionID: day1, ExerciseName: "Squat", Reps: 5})
	if err != nil {
		t.Fatalf("AddSessionDetail: %v", err)
	}
	if added.SetNumber != 4 || added.ExerciseNo != 1 {
		t.Errorf("added set %d exercise %d, want set 4 exercise 1", added.SetNumber, added.ExerciseNo)
	}
	lunge, err := db.AddSessionDetail(ctx, userID, models.NewSet{SessionID: day1, ExerciseName: "Lunge", Reps: 10})
	if err != nil {
		t.Fatalf("AddSessionDetail new exercise: %v", err)
	}
	if lunge.SetNumber != 1 || lunge.ExerciseNo != 3 {
		t.Errorf("new exercise set %d exercise %d, want set 1 exercise 3", lunge.SetNumber, lunge.ExerciseNo)
	}
	if _, err := db.AddSessionDetail(ctx, otherID, models.NewSet{SessionID: day1, ExerciseName: "Squat", Reps: 5}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign add err = %v, want ErrNotFound", err)
	}

	if _, err := db.DeleteSessionDetail(ctx, userID, squat2); err != nil {
		t.Fatalf("DeleteSessionDetail: %v", err)
	}
	if _, err := db.DeleteSessionDetail(ctx, userID, squat2); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	details, err = db.ListSessionDetails(ctx, latest.ID)
	if err != nil {
		t.Fatalf("ListSessionDetails: %v", err)
	}
	var squatSets []int
	for _, d := range details {
		if d.SessionID == day1 && d.ExerciseName == "Squat" {
			squatSets = append(squatSets, d.SetNumber)
		}
	}
	if fmt.Sprint(squatSets) != "[1 3 4]" {
		t.Errorf("squat set numbers = %v, want [1 3 4]", squatSets)
	}

	s, err := db.SetSessionCompleted(ctx, userID, day1, true)
	if err != nil {
		t.Fatalf("SetSessionCompleted: %v", err)
	}
	if !s.Completed {
		t.Error("session not completed")
	}
	if _, err := db.SetSessionCompleted(ctx, otherID, day1, true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign complete err = %v, want ErrNotFound", err)
	}
}
