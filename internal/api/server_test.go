package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/studytrack/internal/metrics"
	"github.com/Kerhoff/studytrack/internal/models"
	"github.com/Kerhoff/studytrack/internal/repository/memory"
	"github.com/Kerhoff/studytrack/internal/schedule"
	"github.com/Kerhoff/studytrack/internal/service"
	"github.com/Kerhoff/studytrack/pkg/logger"
)

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	now    time.Time
	userID int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewWithOutput("error", "text", io.Discard)
	svc := service.New(log, metrics.New(), schedule.NewEngine(1, time.UTC), 2,
		store.Users(), store.Goals(), store.Subjects(), store.Chapters(), store.Reminders())

	a := &testAPI{t: t, now: time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)} // Monday
	svc.SetClock(func() time.Time { return a.now })
	a.srv = httptest.NewServer(NewServer(svc, log).Handler())
	t.Cleanup(a.srv.Close)

	var user models.User
	a.do(http.MethodPost, "/api/users", map[string]string{"first_name": "Ana"}, http.StatusCreated, &user)
	a.userID = user.ID
	return a
}

// do sends body as JSON and decodes the response into out when out is not nil.
func (a *testAPI) do(method, path string, body any, wantStatus int, out any) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	require.Equal(a.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(raw, out))
	}
}

func (a *testAPI) path(p string) string {
	return fmt.Sprintf("%s?user_id=%d", p, a.userID)
}

func (a *testAPI) goal() models.Goal {
	var g models.Goal
	a.do(http.MethodPost, a.path("/api/goals"), map[string]any{
		"type":    "MONTHLY",
		"details": map[string]string{"month": "October"},
	}, http.StatusCreated, &g)
	return g
}

func (a *testAPI) subject(goalID, name, start string, hours float64) models.Subject {
	var s models.Subject
	a.do(http.MethodPost, a.path("/api/subjects"), map[string]any{
		"goalId":   goalID,
		"name":     name,
		"schedule": map[string]any{"days": []string{"Mon", "Wed"}, "time": start, "duration": hours},
	}, http.StatusCreated, &s)
	return s
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	var body map[string]string
	a.do(http.MethodGet, "/healthz", nil, http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestRequireUser(t *testing.T) {
	a := newTestAPI(t)
	a.do(http.MethodGet, "/api/goals", nil, http.StatusBadRequest, nil)
	a.do(http.MethodGet, "/api/goals?user_id=abc", nil, http.StatusBadRequest, nil)
	a.do(http.MethodGet, "/api/goals?user_id=999", nil, http.StatusNotFound, nil)
}

func TestGoals(t *testing.T) {
	a := newTestAPI(t)
	g := a.goal()
	assert.Equal(t, "October Study Goal", g.Title)

	var goals []models.Goal
	a.do(http.MethodGet, a.path("/api/goals"), nil, http.StatusOK, &goals)
	assert.Len(t, goals, 1)

	var errBody map[string]string
	a.do(http.MethodPost, a.path("/api/goals"), map[string]any{"type": "MONTHLY"}, http.StatusBadRequest, &errBody)
	assert.Equal(t, "details.month", errBody["field"])

	a.do(http.MethodDelete, a.path("/api/goals/"+g.ID), nil, http.StatusNoContent, nil)
	a.do(http.MethodDelete, a.path("/api/goals/"+g.ID), nil, http.StatusNotFound, nil)
}

func TestSubjectConflict(t *testing.T) {
	a := newTestAPI(t)
	g := a.goal()
	a.subject(g.ID, "Physics", "09:00", 2)

	var body struct {
		Error    string            `json:"error"`
		Conflict schedule.Conflict `json:"conflict"`
	}
	a.do(http.MethodPost, a.path("/api/subjects"), map[string]any{
		"goalId":   g.ID,
		"name":     "Chemistry",
		"schedule": map[string]any{"days": []string{"Wed"}, "time": "10:30", "duration": 1},
	}, http.StatusConflict, &body)
	assert.Equal(t, "Physics", body.Conflict.SubjectName)
	assert.Contains(t, body.Error, "Physics")
	assert.Contains(t, body.Error, "October Study Goal")

	a.do(http.MethodPost, a.path("/api/subjects"), map[string]any{
		"goalId":   g.ID,
		"name":     "Chemistry",
		"schedule": map[string]any{"days": []string{"Wed"}, "time": "25:00", "duration": 1},
	}, http.StatusBadRequest, nil)

	var subjects []models.Subject
	a.do(http.MethodGet, a.path("/api/subjects"), nil, http.StatusOK, &subjects)
	assert.Len(t, subjects, 1)
}

func TestNotificationsFlow(t *testing.T) {
	a := newTestAPI(t)
	g := a.goal()
	s := a.subject(g.ID, "Physics", "09:00", 1.5)
	id := models.ReminderID(s.ID, "2026-10-12")

	var n service.Notifications
	a.do(http.MethodGet, a.path("/api/notifications"), nil, http.StatusOK, &n)
	require.Len(t, n.Active, 1)
	assert.Equal(t, id, n.Active[0].ID)
	assert.Equal(t, 1, n.UnreadCount)

	var rec models.ReminderRecord
	a.do(http.MethodPut, a.path("/api/notifications/"+id+"/read"), nil, http.StatusOK, &rec)
	assert.True(t, rec.Read)

	var res service.CheckInResult
	a.do(http.MethodPost, a.path("/api/notifications/"+id+"/checkin"), nil, http.StatusOK, &res)
	assert.Equal(t, models.ReminderStatusCompleted, res.Record.Status)
	assert.Equal(t, 1.5, res.Subject.StudyHoursCompleted)

	a.do(http.MethodPost, a.path("/api/notifications/"+id+"/checkin"), nil, http.StatusConflict, nil)
	a.do(http.MethodPost, a.path("/api/notifications/nope/checkin"), nil, http.StatusNotFound, nil)

	var updated map[string]int
	a.do(http.MethodPut, a.path("/api/notifications/read-all"), nil, http.StatusOK, &updated)
	assert.Equal(t, 0, updated["updated"])

	var ov struct {
		CompletedHours float64 `json:"completedHours"`
	}
	a.do(http.MethodGet, a.path("/api/progress"), nil, http.StatusOK, &ov)
	assert.Equal(t, 1.5, ov.CompletedHours)
}

func TestChapters(t *testing.T) {
	a := newTestAPI(t)
	g := a.goal()
	s := a.subject(g.ID, "Physics", "09:00", 1)

	var ch models.Chapter
	a.do(http.MethodPost, a.path("/api/chapters"), map[string]any{
		"subjectId":  s.ID,
		"name":       "Optics",
		"targetDate": "2026-10-20",
	}, http.StatusCreated, &ch)
	assert.Equal(t, models.ChapterStatusUpcoming, ch.Status)

	var done struct {
		models.Chapter
		Progress struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
			Percent   int `json:"percent"`
		} `json:"progress"`
		Milestone string `json:"milestone"`
	}
	a.do(http.MethodPost, a.path("/api/chapters"), map[string]any{
		"subjectId":  s.ID,
		"name":       "Waves",
		"targetDate": "2026-10-21",
		"completed":  true,
	}, http.StatusCreated, &done)
	assert.Equal(t, models.ChapterStatusCompleted, done.Status)
	assert.Equal(t, 50, done.Progress.Percent)
	assert.Equal(t, 2, done.Progress.Total)
	assert.Contains(t, done.Milestone, "50% of Physics")

	var chapters []models.Chapter
	a.do(http.MethodGet, a.path("/api/subjects/"+s.ID+"/chapters"), nil, http.StatusOK, &chapters)
	assert.Len(t, chapters, 2)

	a.do(http.MethodDelete, a.path("/api/chapters/"+ch.ID), nil, http.StatusNoContent, nil)
	a.do(http.MethodGet, a.path("/api/subjects/missing/chapters"), nil, http.StatusNotFound, nil)
}
