// Package memory is an in-process implementation of the storage methods
// used by the program service and the account endpoints. It mirrors the
// PostgreSQL semantics closely enough for tests: ownership scoping,
// ErrNotFound on missing rows and all-or-nothing program creation.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
)

// Store holds every table in maps and slices guarded by one mutex.
type Store struct {
	mu sync.Mutex

	// Fail injects an error into the named method ("CreateProgram",
	// "GetLatestWeight", ...). A nil map or missing key means no failure.
	Fail map[string]error

	users         map[int]*models.UserProfile
	measurements  []models.Measurement
	prefs         map[int]models.TrainingPreferences
	categories    map[string][]string
	exercises     map[string]models.Exercise
	exerciseEquip map[string][]string
	userEquip     map[int]map[string]bool
	programs      []models.ProgramRow
	sessions      []models.SessionRow
	details       []models.SessionDetailRow

	nextUserID int
	nextID     int64
	now        func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:         make(map[int]*models.UserProfile),
		prefs:         make(map[int]models.TrainingPreferences),
		categories:    make(map[string][]string),
		exercises:     make(map[string]models.Exercise),
		exerciseEquip: make(map[string][]string),
		userEquip:     make(map[int]map[string]bool),
		now:           time.Now,
	}
}

func (s *Store) fail(op string) error {
	if err, ok := s.Fail[op]; ok && err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, models.ErrNotFound)
}

// Ping always succeeds unless a "Ping" failure is injected.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("Ping")
}

// AddUser inserts a user and returns its id.
func (s *Store) AddUser(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	s.users[s.nextUserID] = &models.UserProfile{ID: s.nextUserID, Email: email}
	return s.nextUserID
}

// ProgramCount reports how many programs exist across all users.
func (s *Store) ProgramCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.programs)
}

// DetailCount reports how many session_details rows exist.
func (s *Store) DetailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.details)
}

func (s *Store) GetUserProfile(_ context.Context, userID int) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetUserProfile"); err != nil {
		return nil, err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("querying user profile")
	}
	p := *u
	if p.DateOfBirth != nil {
		age := yearsBetween(*p.DateOfBirth, s.now())
		p.Age = &age
	}
	return &p, nil
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.YearDay() < from.YearDay() {
		years--
	}
	return years
}

func (s *Store) UpdateUserProfile(_ context.Context, userID int, u models.ProfileUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	p, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return nil, notFound("updating user profile")
	}
	if u.FirstName != nil {
		p.FirstName = u.FirstName
	}
	if u.LastName != nil {
		p.LastName = u.LastName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth
	}
	if u.Gender != nil {
		p.Gender = u.Gender
	}
	s.mu.Unlock()
	return s.GetUserProfile(context.Background(), userID)
}

func (s *Store) InsertMeasurement(_ context.Context, userID int, weight float64, height int) (*models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertMeasurement"); err != nil {
		return nil, err
	}
	if _, ok := s.users[userID]; !ok {
		return nil, notFound("inserting measurement")
	}
	m := models.Measurement{ID: s.id(), UserID: userID, DateTime: s.now(), Weight: weight, Height: height}
	s.measurements = append(s.measurements, m)
	return &m, nil
}

func (s *Store) GetLatestWeight(_ context.Context, userID int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetLatestWeight"); err != nil {
		return 0, err
	}
	for i := len(s.measurements) - 1; i >= 0; i-- {
		if s.measurements[i].UserID == userID {
			return s.measurements[i].Weight, nil
		}
	}
	return 0, notFound("querying latest weight")
}

func (s *Store) GetTrainingPreferences(_ context.Context, userID int) (*models.TrainingPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetTrainingPreferences"); err != nil {
		return nil, err
	}
	p, ok := s.prefs[userID]
	if !ok {
		return nil, notFound("querying training preferences")
	}
	return &p, nil
}

func (s *Store) UpsertTrainingPreferences(_ context.Context, userID int, u models.PreferencesUpdate) (*models.TrainingPreferences, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, false, notFound("upserting training preferences")
	}
	p, exists := s.prefs[userID]
	if !exists && !u.Complete() {
		return nil, false, fmt.Errorf("creating training preferences: %w", storage.ErrIncomplete)
	}
	p.UserID = userID
	if u.Goal != nil {
		p.Goal = *u.Goal
	}
	if u.FitnessLevel != nil {
		p.FitnessLevel = *u.FitnessLevel
	}
	if u.DaysPerWeek != nil {
		p.DaysPerWeek = *u.DaysPerWeek
	}
	if u.MinutesPerSession != nil {
		p.MinutesPerSession = *u.MinutesPerSession
	}
	p.UpdatedAt = s.now()
	s.prefs[userID] = p
	return &p, !exists, nil
}

// ImportCatalog loads access categories and exercises with the same
// upsert semantics as the PostgreSQL importer.
func (s *Store) ImportCatalog(_ context.Context, c *models.Catalog) (*storage.ImportStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &storage.ImportStats{Equipment: len(c.AllEquipment())}
	for name, equipment := range c.AccessCategories {
		merged := s.categories[name]
		for _, eq := range equipment {
			if !slices.Contains(merged, eq) {
				merged = append(merged, eq)
			}
		}
		sort.Strings(merged)
		s.categories[name] = merged
		stats.AccessCategories++
		stats.EquipmentAccess += len(equipment)
	}
	for _, ex := range c.Exercises {
		s.exercises[ex.Name] = ex.Exercise
		s.exerciseEquip[ex.Name] = slices.Clone(ex.Equipment)
		stats.Exercises++
		stats.ExerciseLinks += len(ex.Equipment)
	}
	return stats, nil
}

func (s *Store) GrantAccessCategory(_ context.Context, userID int, category string) (*storage.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	equipment := s.categories[category]
	if len(equipment) == 0 {
		return nil, notFound(fmt.Sprintf("access category %q", category))
	}
	if _, ok := s.users[userID]; !ok {
		return nil, notFound("granting equipment")
	}
	granted := s.userEquip[userID]
	if granted == nil {
		granted = make(map[string]bool)
		s.userEquip[userID] = granted
	}
	g := &storage.Grant{AccessCategory: category, Equipment: slices.Clone(equipment)}
	for _, eq := range equipment {
		if !granted[eq] {
			granted[eq] = true
			g.NewlyGranted++
		}
	}
	return g, nil
}

func (s *Store) GetAccessibleExerciseNames(_ context.Context, userID int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetAccessibleExerciseNames"); err != nil {
		return nil, err
	}
	granted := s.userEquip[userID]
	var names []string
	for name, equipment := range s.exerciseEquip {
		for _, eq := range equipment {
			if granted[eq] {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) QueryExercisesByNamesAndModality(_ context.Context, names []string, modality string) ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("QueryExercisesByNamesAndModality"); err != nil {
		return nil, err
	}
	var result []models.Exercise
	for _, name := range names {
		if ex, ok := s.exercises[name]; ok && ex.Modality == modality {
			result = append(result, ex)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CreateProgram builds every row first and only commits them to the store
// when nothing failed.
func (s *Store) CreateProgram(_ context.Context, p models.NewProgram) (*models.ProgramDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateProgram"); err != nil {
		return nil, err
	}
	if _, ok := s.users[p.UserID]; !ok {
		return nil, notFound("inserting workout program")
	}

	prog := models.ProgramRow{
		ID:              s.id(),
		UserID:          p.UserID,
		Title:           p.Title,
		Description:     p.Description,
		LengthWeeks:     p.LengthWeeks,
		SessionsPerWeek: p.SessionsPerWeek,
		CreatedAt:       s.now(),
	}
	var sessions []models.SessionRow
	var details []models.SessionDetailRow
	for _, ns := range p.Sessions {
		sess := models.SessionRow{
			ID:            s.id(),
			ProgramID:     prog.ID,
			Date:          ns.Date,
			WeekNumber:    ns.WeekNumber,
			SessionNumber: ns.SessionNumber,
			Title:         ns.Title,
			LengthMinutes: ns.LengthMinutes,
		}
		sessions = append(sessions, sess)
		for exNo, ex := range ns.Exercises {
			for set := 1; set <= ex.Sets; set++ {
				details = append(details, models.SessionDetailRow{
					ID:           s.id(),
					SessionID:    sess.ID,
					ExerciseName: ex.Name,
					ExerciseNo:   exNo + 1,
					SetNumber:    set,
					Reps:         ex.Reps,
					Weight:       cloneWeight(ex.Weight),
				})
			}
		}
	}
	if err := s.fail("CreateProgram.details"); err != nil {
		return nil, err
	}

	s.programs = append(s.programs, prog)
	s.sessions = append(s.sessions, sessions...)
	s.details = append(s.details, details...)
	return &models.ProgramDetail{
		ProgramRow: prog,
		Sessions:   slices.Clone(sessions),
		Details:    slices.Clone(details),
	}, nil
}

func cloneWeight(w *float64) *float64 {
	if w == nil {
		return nil
	}
	v := *w
	return &v
}

func (s *Store) GetLatestProgram(_ context.Context, userID int) (*models.ProgramRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetLatestProgram"); err != nil {
		return nil, err
	}
	for i := len(s.programs) - 1; i >= 0; i-- {
		if s.programs[i].UserID == userID {
			p := s.programs[i]
			return &p, nil
		}
	}
	return nil, notFound("querying latest program")
}

func (s *Store) ListSessions(_ context.Context, programID int64) ([]models.SessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.SessionRow
	for _, sess := range s.sessions {
		if sess.ProgramID == programID {
			result = append(result, sess)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].SessionNumber < result[j].SessionNumber
	})
	return result, nil
}

func (s *Store) ListSessionDetails(_ context.Context, programID int64) ([]models.SessionDetailRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.SessionDetailRow
	for _, d := range s.details {
		if sess, ok := s.sessionLocked(d.SessionID); ok && sess.ProgramID == programID {
			result = append(result, d)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.ExerciseNo != b.ExerciseNo {
			return a.ExerciseNo < b.ExerciseNo
		}
		return a.SetNumber < b.SetNumber
	})
	return result, nil
}

func (s *Store) sessionLocked(id int64) (*models.SessionRow, bool) {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return &s.sessions[i], true
		}
	}
	return nil, false
}

// ownsSession reports whether sessionID belongs to a program of userID.
func (s *Store) ownsSession(userID int, sessionID int64) bool {
	sess, ok := s.sessionLocked(sessionID)
	if !ok {
		return false
	}
	for _, p := range s.programs {
		if p.ID == sess.ProgramID {
			return p.UserID == userID
		}
	}
	return false
}

func (s *Store) detailIndex(userID int, key models.SetKey) int {
	if !s.ownsSession(userID, key.SessionID) {
		return -1
	}
	for i, d := range s.details {
		if d.SessionID == key.SessionID && d.ExerciseName == key.ExerciseName && d.SetNumber == key.SetNumber {
			return i
		}
	}
	return -1
}

func (s *Store) UpdateSessionDetail(_ context.Context, userID int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateSessionDetail"); err != nil {
		return nil, err
	}
	i := s.detailIndex(userID, key)
	if i < 0 {
		return nil, notFound("updating session detail")
	}
	s.details[i].Reps = u.Reps
	if u.Weight != nil {
		s.details[i].Weight = cloneWeight(u.Weight)
	}
	s.details[i].Completed = u.Completed
	d := s.details[i]
	return &d, nil
}

func (s *Store) AddSessionDetail(_ context.Context, userID int, ns models.NewSet) (*models.SessionDetailRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AddSessionDetail"); err != nil {
		return nil, err
	}
	if !s.ownsSession(userID, ns.SessionID) {
		return nil, notFound("adding session detail")
	}
	maxSet, exNo, maxExNo := 0, 0, 0
	for _, d := range s.details {
		if d.SessionID != ns.SessionID {
			continue
		}
		maxExNo = max(maxExNo, d.ExerciseNo)
		if d.ExerciseName == ns.ExerciseName {
			maxSet = max(maxSet, d.SetNumber)
			if exNo == 0 || d.ExerciseNo < exNo {
				exNo = d.ExerciseNo
			}
		}
	}
	if exNo == 0 {
		exNo = maxExNo + 1
	}
	d := models.SessionDetailRow{
		ID:           s.id(),
		SessionID:    ns.SessionID,
		ExerciseName: ns.ExerciseName,
		ExerciseNo:   exNo,
		SetNumber:    maxSet + 1,
		Reps:         ns.Reps,
		Weight:       cloneWeight(ns.Weight),
	}
	s.details = append(s.details, d)
	return &d, nil
}

func (s *Store) DeleteSessionDetail(_ context.Context, userID int, key models.SetKey) (*models.SessionDetailRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteSessionDetail"); err != nil {
		return nil, err
	}
	i := s.detailIndex(userID, key)
	if i < 0 {
		return nil, notFound("deleting session detail")
	}
	d := s.details[i]
	s.details = slices.Delete(s.details, i, i+1)
	return &d, nil
}

func (s *Store) SetSessionCompleted(_ context.Context, userID int, sessionID int64, completed bool) (*models.SessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsSession(userID, sessionID) {
		return nil, notFound("updating session")
	}
	sess, _ := s.sessionLocked(sessionID)
	sess.Completed = completed
	row := *sess
	return &row, nil
}
