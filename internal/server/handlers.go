package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerateProgram(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	res, err := s.programs.Generate(r.Context(), uid)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLatestProgram(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.programs.Latest(r.Context(), uid)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req updateSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := models.SetKey{SessionID: sessionID, ExerciseName: req.ExerciseName, SetNumber: req.SetNumber}
	row, err := s.programs.UpdateSet(r.Context(), uid, key, models.SetUpdate{
		Reps:      *req.Reps,
		Weight:    req.Weight,
		Completed: *req.Completed,
	})
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req addSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	row, err := s.programs.AddSet(r.Context(), uid, models.NewSet{
		SessionID:    sessionID,
		ExerciseName: req.ExerciseName,
		Reps:         req.Reps,
		Weight:       req.Weight,
	})
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	exercise := q.Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	setNumber, err := strconv.Atoi(q.Get("set"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "set parameter must be an integer"})
		return
	}
	row, err := s.programs.DeleteSet(r.Context(), uid, models.SetKey{
		SessionID:    sessionID,
		ExerciseName: exercise,
		SetNumber:    setNumber,
	})
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	row, err := s.programs.CompleteSession(r.Context(), uid, sessionID, *req.Completed)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

// writeProgramError maps pipeline and storage error kinds to HTTP
// statuses. Persistence details are logged, never returned.
func (s *Server) writeProgramError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, program.ErrInvalidInput), errors.Is(err, storage.ErrIncomplete):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, program.ErrNoAccessibleExercises):
		status, msg = http.StatusNotFound, "no accessible exercises: grant an equipment access category first"
	case errors.Is(err, program.ErrNoGoalExercises):
		status, msg = http.StatusNotFound, "no accessible exercise matches the training goal"
	case errors.Is(err, program.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, program.ErrConflict):
		status, msg = http.StatusConflict, "set was changed concurrently, retry"
	case errors.Is(err, program.ErrNoMatchingTemplate),
		errors.Is(err, program.ErrIncompleteTaxonomy),
		errors.Is(err, program.ErrUnsupportedFrequency):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "request canceled"
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
