package server

import (
	"net/http"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.accounts.GetUserProfile(r.Context(), uid)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.accounts.UpdateUserProfile(r.Context(), uid, req.update())
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req measurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := s.accounts.InsertMeasurement(r.Context(), uid, req.Weight, req.Height)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.accounts.GetTrainingPreferences(r.Context(), uid)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutPreferences creates preferences on first submission (201, all
// fields required) and partially updates them afterwards (200).
func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req preferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, created, err := s.accounts.UpsertTrainingPreferences(r.Context(), uid, req.update())
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, p)
}

func (s *Server) handleGrantEquipment(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req equipmentAccessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := s.accounts.GrantAccessCategory(r.Context(), uid, req.AccessCategory)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	s.log.Info("equipment access granted",
		"user_id", uid,
		"access_category", g.AccessCategory,
		"newly_granted", g.NewlyGranted,
	)
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleAccessibleExercises(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	names, err := s.programs.AccessibleExercises(r.Context(), uid)
	if err != nil {
		s.writeProgramError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"exercises": names})
}
