package program

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/models"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Weeks     int
	Templates Registry
	Now       func() time.Time
}

// Service generates programs and serves reads and set mutations on them.
type Service struct {
	store     Store
	log       *slog.Logger
	weeks     int
	templates Registry
	now       func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, log *slog.Logger, opts Options) *Service {
	s := &Service{
		store:     store,
		log:       log,
		weeks:     opts.Weeks,
		templates: opts.Templates,
		now:       opts.Now,
	}
	if s.weeks <= 0 {
		s.weeks = DefaultWeeks
	}
	if s.templates == nil {
		s.templates = DefaultTemplates()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Result is the outcome of a successful generation.
type Result struct {
	Program  *models.ProgramDetail `json:"program"`
	Schedule Schedule              `json:"training_program"`
	Warnings []string              `json:"warnings,omitempty"`
}

// Generate runs the full pipeline for userID and persists the program.
// Nothing is written unless every stage before persistence succeeds, and
// persistence itself is all-or-nothing.
func (s *Service) Generate(ctx context.Context, userID int) (*Result, error) {
	start := time.Now()
	res, err := s.generate(ctx, userID)
	generationsTotal.WithLabelValues(resultLabel(err)).Inc()
	generationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.log.Info("program generation failed", "user_id", userID, "result", resultLabel(err), "error", err)
		return nil, err
	}
	generatedSessions.Observe(float64(len(res.Program.Sessions)))
	s.log.Info("program generated",
		"user_id", userID,
		"program_id", res.Program.ID,
		"sessions", len(res.Program.Sessions),
		"details", len(res.Program.Details),
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, userID int) (*Result, error) {
	facts, err := LoadFacts(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accessible, err := ResolveAccessible(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	s.log.Debug("accessible exercises", "user_id", userID, "count", len(accessible))

	filtered, err := FilterByGoal(ctx, s.store, accessible, facts.Goal)
	if err != nil {
		return nil, err
	}
	s.log.Debug("goal-filtered exercises", "user_id", userID, "goal", facts.Goal, "count", len(filtered))

	tax := BuildTaxonomy(filtered)

	tmpl, err := s.templates.Select(facts.Goal, facts.FitnessLevel)
	if err != nil {
		return nil, err
	}
	fw, err := tmpl.Resolve(tax)
	if err != nil {
		return nil, err
	}

	sched, err := BuildSchedule(fw, facts.DaysPerWeek, s.weeks, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Debug("schedule built", "user_id", userID, "sessions", len(sched))

	annotated, warnings := Annotate(sched, facts)
	for _, w := range warnings {
		s.log.Warn("volume annotation", "user_id", userID, "warning", w)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail, err := s.store.CreateProgram(ctx, newProgram(userID, fw, facts, s.weeks, annotated))
	if err != nil {
		return nil, storeErr("create program", err)
	}

	return &Result{Program: detail, Schedule: annotated, Warnings: warnings}, nil
}

func newProgram(userID int, fw Framework, f *Facts, weeks int, sched Schedule) models.NewProgram {
	p := models.NewProgram{
		UserID:          userID,
		Title:           fw.Title,
		Description:     fw.Description,
		LengthWeeks:     weeks,
		SessionsPerWeek: f.DaysPerWeek,
		Sessions:        make([]models.NewSession, 0, len(sched)),
	}
	for _, sess := range sched {
		p.Sessions = append(p.Sessions, models.NewSession{
			Date:          sess.Date,
			WeekNumber:    sess.Week,
			SessionNumber: sess.SessionNumber,
			Title:         sess.Title,
			LengthMinutes: f.MinutesPerSession,
			Exercises:     sess.Exercises,
		})
	}
	return p
}

// Latest returns the user's most recently created program with its
// sessions ordered by date and all of its set rows.
func (s *Service) Latest(ctx context.Context, userID int) (*models.ProgramDetail, error) {
	p, err := s.store.GetLatestProgram(ctx, userID)
	if err != nil {
		return nil, storeErr("latest program", err)
	}
	sessions, err := s.store.ListSessions(ctx, p.ID)
	if err != nil {
		return nil, storeErr("list sessions", err)
	}
	details, err := s.store.ListSessionDetails(ctx, p.ID)
	if err != nil {
		return nil, storeErr("list session details", err)
	}
	return &models.ProgramDetail{ProgramRow: *p, Sessions: sessions, Details: details}, nil
}

// AccessibleExercises lists exercise names reachable through the user's
// equipment grants. An empty list is not an error here.
func (s *Service) AccessibleExercises(ctx context.Context, userID int) ([]string, error) {
	names, err := s.store.GetAccessibleExerciseNames(ctx, userID)
	if err != nil {
		return nil, storeErr("accessible exercises", err)
	}
	return names, nil
}

// UpdateSet overwrites reps, weight and completion of one set.
func (s *Service) UpdateSet(ctx context.Context, userID int, key models.SetKey, u models.SetUpdate) (*models.SessionDetailRow, error) {
	if err := validateKey(key); err != nil {
		return nil, s.mutated("update", err)
	}
	if err := validateVolume(u.Reps, u.Weight); err != nil {
		return nil, s.mutated("update", err)
	}
	row, err := s.store.UpdateSessionDetail(ctx, userID, key, u)
	if err != nil {
		return nil, s.mutated("update", storeErr("update set", err))
	}
	return row, s.mutated("update", nil)
}

// AddSet appends a set to an exercise; its number is one past the highest
// existing set number for that exercise in the session, or 1.
func (s *Service) AddSet(ctx context.Context, userID int, ns models.NewSet) (*models.SessionDetailRow, error) {
	ns.ExerciseName = strings.TrimSpace(ns.ExerciseName)
	if ns.SessionID <= 0 || ns.ExerciseName == "" {
		return nil, s.mutated("add", fmt.Errorf("%w: session id and exercise name are required", ErrInvalidInput))
	}
	if err := validateVolume(ns.Reps, ns.Weight); err != nil {
		return nil, s.mutated("add", err)
	}
	row, err := s.store.AddSessionDetail(ctx, userID, ns)
	if err != nil {
		return nil, s.mutated("add", storeErr("add set", err))
	}
	return row, s.mutated("add", nil)
}

// DeleteSet removes exactly one set. Remaining sets keep their numbers.
func (s *Service) DeleteSet(ctx context.Context, userID int, key models.SetKey) (*models.SessionDetailRow, error) {
	if err := validateKey(key); err != nil {
		return nil, s.mutated("delete", err)
	}
	row, err := s.store.DeleteSessionDetail(ctx, userID, key)
	if err != nil {
		return nil, s.mutated("delete", storeErr("delete set", err))
	}
	return row, s.mutated("delete", nil)
}

// CompleteSession sets the completed flag of a whole session.
func (s *Service) CompleteSession(ctx context.Context, userID int, sessionID int64, completed bool) (*models.SessionRow, error) {
	if sessionID <= 0 {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	row, err := s.store.SetSessionCompleted(ctx, userID, sessionID, completed)
	if err != nil {
		return nil, storeErr("complete session", err)
	}
	return row, nil
}

// mutated records a set mutation outcome and returns err unchanged.
func (s *Service) mutated(op string, err error) error {
	setMutationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		s.log.Debug("set mutation rejected", "operation", op, "error", err)
	}
	return err
}

func validateKey(key models.SetKey) error {
	if key.SessionID <= 0 || strings.TrimSpace(key.ExerciseName) == "" || key.SetNumber < 1 {
		return fmt.Errorf("%w: session id, exercise name and set number >= 1 are required", ErrInvalidInput)
	}
	return nil
}

func validateVolume(reps int, weight *float64) error {
	if reps < 0 {
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidInput)
	}
	if weight != nil && *weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	return nil
}
