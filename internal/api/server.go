package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository"
	"github.com/Kerhoff/studytrack/internal/schedule"
	"github.com/Kerhoff/studytrack/internal/service"
)

// Server provides the HTTP API.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// API – Users
	s.mux.HandleFunc("POST /api/users", s.handleRegisterUser)

	// API – Goals
	s.mux.HandleFunc("GET /api/goals", s.handleGetGoals)
	s.mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	s.mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	// API – Subjects
	s.mux.HandleFunc("GET /api/subjects", s.handleGetSubjects)
	s.mux.HandleFunc("POST /api/subjects", s.handleSaveSubject)
	s.mux.HandleFunc("DELETE /api/subjects/{id}", s.handleDeleteSubject)

	// API – Chapters
	s.mux.HandleFunc("GET /api/subjects/{id}/chapters", s.handleGetChapters)
	s.mux.HandleFunc("POST /api/chapters", s.handleSaveChapter)
	s.mux.HandleFunc("DELETE /api/chapters/{id}", s.handleDeleteChapter)

	// API – Notifications
	s.mux.HandleFunc("GET /api/notifications", s.handleGetNotifications)
	s.mux.HandleFunc("POST /api/notifications/{id}/checkin", s.handleCheckIn)
	s.mux.HandleFunc("PUT /api/notifications/{id}/read", s.handleMarkRead)
	s.mux.HandleFunc("PUT /api/notifications/read-all", s.handleMarkAllRead)

	// API – Progress
	s.mux.HandleFunc("GET /api/progress", s.handleGetProgress)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto status codes. Anything not
// recognised is logged and reported as a 500 with a generic message.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, action string) {
	var (
		verr *service.ValidationError
		cerr *service.ConflictError
		serr *schedule.InvalidScheduleError
	)

	switch {
	case errors.As(err, &cerr):
		s.respondJSON(w, http.StatusConflict, map[string]any{
			"error":    cerr.Error(),
			"conflict": cerr.Conflict,
		})
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.As(err, &serr), errors.Is(err, schedule.ErrInvalidTimeFormat):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, schedule.ErrAlreadyCompleted):
		s.respondError(w, http.StatusConflict, "session already completed")
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, schedule.ErrRecordNotFound),
		errors.Is(err, schedule.ErrSubjectNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.WithError(err).Errorf("failed to %s", action)
		s.respondError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// requireUser reads the user_id query parameter and loads the user.  It
// writes an error response and returns 0 when the parameter is absent,
// invalid or names an unknown user.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "user_id must be an integer")
		return 0, false
	}
	if _, err := s.svc.GetUser(r.Context(), id); err != nil {
		s.respondServiceError(w, err, "load user")
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Health & users
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.svc.RegisterUser(r.Context(), req.FirstName, req.LastName)
	if err != nil {
		s.respondServiceError(w, err, "register user")
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

// ---------------------------------------------------------------------------
// Goals
// ---------------------------------------------------------------------------

type createGoalRequest struct {
	Type    models.GoalType    `json:"type"`
	Title   string             `json:"title"`
	Details models.GoalDetails `json:"details"`
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	goals, err := s.svc.ListGoals(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "get goals")
		return
	}
	if goals == nil {
		goals = []*models.Goal{}
	}

	s.respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := s.svc.CreateGoal(r.Context(), userID, &models.Goal{
		Type:    req.Type,
		Title:   req.Title,
		Details: req.Details,
	})
	if err != nil {
		s.respondServiceError(w, err, "create goal")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondServiceError(w, err, "delete goal")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Subjects
// ---------------------------------------------------------------------------

// saveSubjectRequest creates a subject when ID is empty and edits it
// otherwise.
type saveSubjectRequest struct {
	ID          string           `json:"id"`
	GoalID      string           `json:"goalId"`
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	Schedule    *models.Schedule `json:"schedule"`
	TargetHours *float64         `json:"totalTargetHours"`
}

func (s *Server) handleGetSubjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	subjects, err := s.svc.ListSubjects(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "get subjects")
		return
	}
	if subjects == nil {
		subjects = []*models.Subject{}
	}

	s.respondJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleSaveSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req saveSubjectRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	saved, err := s.svc.SaveSubject(r.Context(), userID, &models.Subject{
		ID:          req.ID,
		GoalID:      req.GoalID,
		Name:        req.Name,
		Color:       req.Color,
		Schedule:    req.Schedule,
		TargetHours: req.TargetHours,
	})
	if err != nil {
		s.respondServiceError(w, err, "save subject")
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	s.respondJSON(w, status, saved)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteSubject(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondServiceError(w, err, "delete subject")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Chapters
// ---------------------------------------------------------------------------

type saveChapterRequest struct {
	ID               string `json:"id"`
	SubjectID        string `json:"subjectId"`
	Name             string `json:"name"`
	TargetDate       string `json:"targetDate"`
	TargetTime       string `json:"targetTime"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Completed        bool   `json:"completed"`
}

func (s *Server) handleGetChapters(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	chapters, err := s.svc.ListChapters(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err, "get chapters")
		return
	}
	if chapters == nil {
		chapters = []*models.Chapter{}
	}

	s.respondJSON(w, http.StatusOK, chapters)
}

func (s *Server) handleSaveChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req saveChapterRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	saved, err := s.svc.SaveChapter(r.Context(), userID, &models.Chapter{
		ID:               req.ID,
		SubjectID:        req.SubjectID,
		Name:             req.Name,
		TargetDate:       req.TargetDate,
		TargetTime:       req.TargetTime,
		EstimatedMinutes: req.EstimatedMinutes,
		Completed:        req.Completed,
	})
	if err != nil {
		s.respondServiceError(w, err, "save chapter")
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	s.respondJSON(w, status, saved)
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteChapter(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondServiceError(w, err, "delete chapter")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

// handleGetNotifications reconciles before answering, so the response always
// reflects today's sessions.
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	n, err := s.svc.SyncNotifications(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "sync notifications")
		return
	}

	s.respondJSON(w, http.StatusOK, n)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	res, err := s.svc.CheckIn(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err, "check in")
		return
	}

	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	rec, err := s.svc.MarkRead(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err, "mark notification read")
		return
	}

	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	n, err := s.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "mark notifications read")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	ov, err := s.svc.Progress(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "get progress")
		return
	}

	s.respondJSON(w, http.StatusOK, ov)
}
