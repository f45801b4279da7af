package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage/memory"
)

var testCatalog = &models.Catalog{
	AccessCategories: map[string][]string{
		"Commercial Gym":  {"Barbell"},
		"Bodyweight Only": {"None"},
	},
	Exercises: []models.CatalogExercise{
		{Exercise: models.Exercise{Name: "Back Squat", PrimaryMuscleGroup: program.MuscleLowerBody, MovementType: program.MovementCompound, Modality: program.ModalityStrength}, Equipment: []string{"Barbell"}},
		{Exercise: models.Exercise{Name: "Bench Press", PrimaryMuscleGroup: program.MuscleChest, MovementType: program.MovementCompound, Modality: program.ModalityStrength}, Equipment: []string{"Barbell"}},
		{Exercise: models.Exercise{Name: "Barbell Row", PrimaryMuscleGroup: program.MuscleUpperBack, MovementType: program.MovementCompound, Modality: program.ModalityStrength}, Equipment: []string{"Barbell"}},
		{Exercise: models.Exercise{Name: "Overhead Press", PrimaryMuscleGroup: program.MuscleShoulder, MovementType: program.MovementCompound, Modality: program.ModalityStrength}, Equipment: []string{"Barbell"}},
		{Exercise: models.Exercise{Name: "Deadlift", PrimaryMuscleGroup: program.MuscleLowerBack, MovementType: program.MovementCompound, Modality: program.ModalityStrength}, Equipment: []string{"Barbell"}},
		{Exercise: models.Exercise{Name: "Push-up", PrimaryMuscleGroup: program.MuscleChest, MovementType: program.MovementCompound}, Equipment: []string{"None"}},
	},
}

type testEnv struct {
	t     *testing.T
	srv   *Server
	store *memory.Store
	uid   int
	auth  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	if _, err := store.ImportCatalog(context.Background(), testCatalog); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	svc := program.NewService(store, discardLogger(), program.Options{Now: func() time.Time { return now }})
	uid := store.AddUser("lifter@example.com")
	return &testEnv{
		t:     t,
		srv:   New(store, svc, testSecret, discardLogger()),
		store: store,
		uid:   uid,
		auth:  bearer(t, uid),
	}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.doAs(e.auth, method, path, body)
}

func (e *testEnv) doAs(authHeader, method, path, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) expect(rec *httptest.ResponseRecorder, status int) {
	e.t.Helper()
	if rec.Code != status {
		e.t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v; body: %s", err, rec.Body.String())
	}
	return v
}

// setUp records everything generation needs for the test user.
func (e *testEnv) setUp() {
	e.t.Helper()
	e.expect(e.do(http.MethodPatch, "/api/v1/users/me", `{"gender":"Female","date_of_birth":"1990-04-01"}`), http.StatusOK)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/measurements", `{"weight":60,"height":168}`), http.StatusCreated)
	e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{
		"training_goal":"Build Muscle",
		"starting_fitness_level":"Beginner",
		"training_days_per_week":3,
		"training_time_per_session":60
	}`), http.StatusCreated)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/equipment-access", `{"access_category":"Commercial Gym"}`), http.StatusOK)
}

func (e *testEnv) generate() program.Result {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/programs", "")
	e.expect(rec, http.StatusCreated)
	return decode[program.Result](e.t, rec)
}

// TestHealth verifies /healthz reflects storage reachability.
func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	e.expect(e.doAs("", http.MethodGet, "/healthz", ""), http.StatusOK)

	e.store.Fail = map[string]error{"Ping": errors.New("connection refused")}
	e.expect(e.doAs("", http.MethodGet, "/healthz", ""), http.StatusServiceUnavailable)
}

// TestMetricsEndpoint verifies Prometheus metrics are exposed without auth.
func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	rec := e.doAs("", http.MethodGet, "/metrics", "")
	e.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}
}

// TestAPIRequiresToken verifies every /api/v1 route is behind auth.
func TestAPIRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/api/v1/users/me", "/api/v1/programs/latest", "/mcp"} {
		rec := e.doAs("", http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
		}
	}
}

// TestProfile verifies partial updates and the derived age.
func TestProfile(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPatch, "/api/v1/users/me", `{"first_name":"Sam","date_of_birth":"1990-04-01"}`)
	e.expect(rec, http.StatusOK)

	rec = e.do(http.MethodGet, "/api/v1/users/me", "")
	e.expect(rec, http.StatusOK)
	p := decode[models.UserProfile](t, rec)
	if p.Email != "lifter@example.com" || p.FirstName == nil || *p.FirstName != "Sam" {
		t.Errorf("profile = %+v", p)
	}
	if p.Age == nil || *p.Age < 30 {
		t.Errorf("age = %v, want derived from date of birth", p.Age)
	}
	if p.Gender != nil {
		t.Errorf("gender = %q, want unset", *p.Gender)
	}

	e.expect(e.do(http.MethodPatch, "/api/v1/users/me", `{"date_of_birth":"01/04/1990"}`), http.StatusBadRequest)
}

// TestMeasurementValidation verifies impossible measurements are rejected.
func TestMeasurementValidation(t *testing.T) {
	e := newTestEnv(t)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/measurements", `{"weight":0,"height":170}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/measurements", `{"weight":70,"height":170,"bmi":24}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/measurements", `{"weight":70.5,"height":170}`), http.StatusCreated)
}

// TestPreferences verifies a complete first submission creates (201),
// later partial submissions update (200), and bad values are rejected.
func TestPreferences(t *testing.T) {
	e := newTestEnv(t)

	e.expect(e.do(http.MethodGet, "/api/v1/users/me/preferences", ""), http.StatusNotFound)
	e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"training_goal":"Build Muscle"}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"training_goal":"Get Huge"}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{
		"training_goal":"Build Strength",
		"starting_fitness_level":"Intermediate",
		"training_days_per_week":3,
		"training_time_per_session":45
	}`), http.StatusCreated)

	rec := e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"training_days_per_week":4}`)
	e.expect(rec, http.StatusOK)
	p := decode[models.TrainingPreferences](t, rec)
	if p.Goal != models.GoalBuildStrength || p.DaysPerWeek != 4 || p.MinutesPerSession != 45 {
		t.Errorf("preferences = %+v", p)
	}

	e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"training_days_per_week":8}`), http.StatusBadRequest)
}

// TestEquipmentAccess verifies grants are reported and unknown categories
// are 404.
func TestEquipmentAccess(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodGet, "/api/v1/users/me/exercises", "")
	e.expect(rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"exercises":[]}` {
		t.Errorf("body = %s, want empty list", got)
	}

	e.expect(e.do(http.MethodPost, "/api/v1/users/me/equipment-access", `{"access_category":"Moon Base"}`), http.StatusNotFound)
	e.expect(e.do(http.MethodPost, "/api/v1/users/me/equipment-access", `{}`), http.StatusBadRequest)

	rec = e.do(http.MethodPost, "/api/v1/users/me/equipment-access", `{"access_category":"Bodyweight Only"}`)
	e.expect(rec, http.StatusOK)
	if g := decode[map[string]any](t, rec); g["newly_granted"] != float64(1) {
		t.Errorf("grant = %v", g)
	}

	rec = e.do(http.MethodGet, "/api/v1/users/me/exercises", "")
	e.expect(rec, http.StatusOK)
	body := decode[map[string][]string](t, rec)
	if len(body["exercises"]) != 1 || body["exercises"][0] != "Push-up" {
		t.Errorf("exercises = %v", body["exercises"])
	}
}

// TestGenerateAndLatest verifies a generated program is returned by the
// latest endpoint with the same shape.
func TestGenerateAndLatest(t *testing.T) {
	e := newTestEnv(t)
	e.expect(e.do(http.MethodGet, "/api/v1/programs/latest", ""), http.StatusNotFound)
	e.setUp()

	res := e.generate()
	if len(res.Program.Sessions) != 6 || len(res.Program.Details) != 54 {
		t.Fatalf("sessions=%d details=%d", len(res.Program.Sessions), len(res.Program.Details))
	}
	if len(res.Schedule) != 6 {
		t.Errorf("schedule length = %d, want 6", len(res.Schedule))
	}

	rec := e.do(http.MethodGet, "/api/v1/programs/latest", "")
	e.expect(rec, http.StatusOK)
	latest := decode[models.ProgramDetail](t, rec)
	if latest.ID != res.Program.ID || len(latest.Details) != 54 {
		t.Errorf("latest id=%d details=%d", latest.ID, len(latest.Details))
	}

	second := e.generate()
	rec = e.do(http.MethodGet, "/api/v1/programs/latest", "")
	if got := decode[models.ProgramDetail](t, rec); got.ID != second.Program.ID {
		t.Errorf("latest id = %d, want %d", got.ID, second.Program.ID)
	}
}

// TestGenerateErrors verifies each failure kind maps to its status and
// nothing is stored.
func TestGenerateErrors(t *testing.T) {
	t.Run("no preferences", func(t *testing.T) {
		e := newTestEnv(t)
		e.expect(e.do(http.MethodPost, "/api/v1/programs", ""), http.StatusNotFound)
	})

	t.Run("no grants", func(t *testing.T) {
		e := newTestEnv(t)
		e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{
			"training_goal":"Build Muscle",
			"starting_fitness_level":"Beginner",
			"training_days_per_week":3,
			"training_time_per_session":60
		}`), http.StatusCreated)
		e.expect(e.do(http.MethodPatch, "/api/v1/users/me", `{"gender":"Male"}`), http.StatusOK)
		e.expect(e.do(http.MethodPost, "/api/v1/users/me/measurements", `{"weight":80,"height":180}`), http.StatusCreated)

		rec := e.do(http.MethodPost, "/api/v1/programs", "")
		e.expect(rec, http.StatusNotFound)
		if !strings.Contains(rec.Body.String(), "equipment access") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("unsupported frequency", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUp()
		e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"training_days_per_week":4}`), http.StatusOK)
		e.expect(e.do(http.MethodPost, "/api/v1/programs", ""), http.StatusUnprocessableEntity)
		if n := e.store.ProgramCount(); n != 0 {
			t.Errorf("programs stored = %d, want 0", n)
		}
	})

	t.Run("no template", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUp()
		e.expect(e.do(http.MethodPut, "/api/v1/users/me/preferences", `{"starting_fitness_level":"Advanced"}`), http.StatusOK)
		e.expect(e.do(http.MethodPost, "/api/v1/programs", ""), http.StatusUnprocessableEntity)
	})

	t.Run("persistence failure", func(t *testing.T) {
		e := newTestEnv(t)
		e.setUp()
		e.store.Fail = map[string]error{"CreateProgram.details": errors.New("disk full")}
		rec := e.do(http.MethodPost, "/api/v1/programs", "")
		e.expect(rec, http.StatusInternalServerError)
		if strings.Contains(rec.Body.String(), "disk full") {
			t.Errorf("storage detail leaked: %s", rec.Body.String())
		}
		if n := e.store.ProgramCount(); n != 0 {
			t.Errorf("programs stored = %d, want 0", n)
		}
	})
}

// TestSetMutations verifies update, append and delete of sets and the
// session completion flag.
func TestSetMutations(t *testing.T) {
	e := newTestEnv(t)
	e.setUp()
	res := e.generate()
	first := res.Program.Details[0]
	path := "/api/v1/sessions/" + itoa(first.SessionID) + "/sets"

	rec := e.do(http.MethodPatch, path, `{"exercise_name":"`+first.ExerciseName+`","set_number":2,"reps":7,"weight":20.5,"completed":true}`)
	e.expect(rec, http.StatusOK)
	row := decode[models.SessionDetailRow](t, rec)
	if row.Reps != 7 || row.Weight == nil || *row.Weight != 20.5 || !row.Completed {
		t.Errorf("updated row = %+v", row)
	}

	rec = e.do(http.MethodPost, path, `{"exercise_name":"`+first.ExerciseName+`","reps":8}`)
	e.expect(rec, http.StatusCreated)
	if added := decode[models.SessionDetailRow](t, rec); added.SetNumber != 4 || added.ExerciseNo != first.ExerciseNo {
		t.Errorf("added row = %+v", added)
	}

	e.expect(e.do(http.MethodDelete, path+"?exercise="+urlEscape(first.ExerciseName)+"&set=4", ""), http.StatusOK)
	e.expect(e.do(http.MethodDelete, path+"?exercise="+urlEscape(first.ExerciseName)+"&set=4", ""), http.StatusNotFound)
	e.expect(e.do(http.MethodDelete, path+"?set=1", ""), http.StatusBadRequest)
	e.expect(e.do(http.MethodDelete, path+"?exercise=x&set=one", ""), http.StatusBadRequest)

	e.expect(e.do(http.MethodPatch, path, `{"exercise_name":"Back Squat","set_number":0,"reps":5}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPatch, "/api/v1/sessions/abc/sets", `{"exercise_name":"Back Squat","set_number":1,"reps":5}`), http.StatusBadRequest)

	rec = e.do(http.MethodPatch, "/api/v1/sessions/"+itoa(first.SessionID), `{"completed":true}`)
	e.expect(rec, http.StatusOK)
	if s := decode[models.SessionRow](t, rec); !s.Completed {
		t.Error("session not marked completed")
	}
	e.expect(e.do(http.MethodPatch, "/api/v1/sessions/"+itoa(first.SessionID), `{}`), http.StatusBadRequest)
}

// TestUpdateSetRequiresVolume verifies an update that omits reps or
// completed is rejected without touching the set, and that an omitted
// weight keeps the planned one.
func TestUpdateSetRequiresVolume(t *testing.T) {
	e := newTestEnv(t)
	e.setUp()
	res := e.generate()
	first := res.Program.Details[0]
	path := "/api/v1/sessions/" + itoa(first.SessionID) + "/sets"
	name := `"exercise_name":"` + first.ExerciseName + `","set_number":1`

	e.expect(e.do(http.MethodPatch, path, `{`+name+`,"completed":true}`), http.StatusBadRequest)
	e.expect(e.do(http.MethodPatch, path, `{`+name+`,"reps":6}`), http.StatusBadRequest)

	rec := e.do(http.MethodGet, "/api/v1/programs/latest", "")
	e.expect(rec, http.StatusOK)
	latest := decode[models.ProgramDetail](t, rec)
	stored := latest.Details[0]
	if stored.Reps != 8 || stored.Weight == nil || *stored.Weight != 18 || stored.Completed {
		t.Fatalf("set changed by rejected update: %+v", stored)
	}

	rec = e.do(http.MethodPatch, path, `{`+name+`,"reps":6,"completed":true}`)
	e.expect(rec, http.StatusOK)
	row := decode[models.SessionDetailRow](t, rec)
	if row.Reps != 6 || !row.Completed {
		t.Errorf("updated row = %+v", row)
	}
	if row.Weight == nil || *row.Weight != 18 {
		t.Errorf("weight = %v, want planned 18 kept", row.Weight)
	}

	rec = e.do(http.MethodPatch, path, `{`+name+`,"reps":0,"weight":null,"completed":false}`)
	e.expect(rec, http.StatusOK)
	if row := decode[models.SessionDetailRow](t, rec); row.Reps != 0 || row.Weight == nil || *row.Weight != 18 {
		t.Errorf("row after null weight = %+v", row)
	}
}

// TestAddSetConflict verifies a lost race for the next set number is a 409.
func TestAddSetConflict(t *testing.T) {
	e := newTestEnv(t)
	e.setUp()
	res := e.generate()
	first := res.Program.Details[0]

	e.store.Fail = map[string]error{"AddSessionDetail": models.ErrConflict}
	rec := e.do(http.MethodPost, "/api/v1/sessions/"+itoa(first.SessionID)+"/sets", `{"exercise_name":"`+first.ExerciseName+`","reps":8}`)
	e.expect(rec, http.StatusConflict)
}

// TestSetMutationsForeignSession verifies another user's sessions look
// like missing ones.
func TestSetMutationsForeignSession(t *testing.T) {
	e := newTestEnv(t)
	e.setUp()
	res := e.generate()
	first := res.Program.Details[0]
	path := "/api/v1/sessions/" + itoa(first.SessionID) + "/sets"

	intruder := bearer(t, e.store.AddUser("intruder@example.com"))
	e.expect(e.doAs(intruder, http.MethodPatch, path, `{"exercise_name":"`+first.ExerciseName+`","set_number":1,"reps":1,"completed":true}`), http.StatusNotFound)
	e.expect(e.doAs(intruder, http.MethodPost, path, `{"exercise_name":"`+first.ExerciseName+`","reps":1}`), http.StatusNotFound)
	e.expect(e.doAs(intruder, http.MethodDelete, path+"?exercise="+urlEscape(first.ExerciseName)+"&set=1", ""), http.StatusNotFound)
	e.expect(e.doAs(intruder, http.MethodPatch, "/api/v1/sessions/"+itoa(first.SessionID), `{"completed":true}`), http.StatusNotFound)

	if n := e.store.DetailCount(); n != 54 {
		t.Errorf("details = %d, want 54", n)
	}
}

// TestMCPNotMounted verifies /mcp is 404 until a handler is set.
func TestMCPNotMounted(t *testing.T) {
	e := newTestEnv(t)
	e.expect(e.do(http.MethodPost, "/mcp", `{}`), http.StatusNotFound)

	e.srv.SetMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	e.expect(e.do(http.MethodPost, "/mcp", `{}`), http.StatusAccepted)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}
