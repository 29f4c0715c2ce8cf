package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/services"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type stubDispatch struct {
	notif *types.WorkerNotification
	err   error
}

func (s *stubDispatch) Dispatch(context.Context, *types.RoutingDecision, services.PatientContext) (*types.WorkerNotification, error) {
	return s.notif, s.err
}
func (s *stubDispatch) Acknowledge(context.Context, uuid.UUID, uuid.UUID, *string) (*types.WorkerNotification, error) {
	return s.notif, s.err
}
func (s *stubDispatch) Respond(context.Context, uuid.UUID, uuid.UUID, string) (*types.WorkerNotification, error) {
	return s.notif, s.err
}
func (s *stubDispatch) Complete(context.Context, uuid.UUID, uuid.UUID) (*types.WorkerNotification, error) {
	return s.notif, s.err
}
func (s *stubDispatch) Cancel(context.Context, uuid.UUID) (*types.WorkerNotification, error) {
	return s.notif, s.err
}

type stubQuery struct {
	page      *services.NotificationPage
	stats     *services.NotificationStats
	err       error
	lastStart *time.Time
	lastEnd   *time.Time
}

func (s *stubQuery) ListForWorker(context.Context, uuid.UUID, *types.NotificationStatus, *types.Priority, int, int) (*services.NotificationPage, error) {
	return s.page, s.err
}
func (s *stubQuery) Stats(_ context.Context, _ uuid.UUID, start, end *time.Time) (*services.NotificationStats, error) {
	s.lastStart, s.lastEnd = start, end
	return s.stats, s.err
}

func newNotificationRouter(t *testing.T, dispatch services.DispatchService, query services.NotificationQueryService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	h := NewNotificationHandler(log, dispatch, query)
	r := gin.New()
	r.GET("/api/worker-notifications/stats/:workerId", h.Stats)
	r.GET("/api/worker-notifications/:workerId", h.List)
	r.PUT("/api/worker-notifications/:notificationId/acknowledge", h.Acknowledge)
	r.PUT("/api/worker-notifications/:notificationId/respond", h.Respond)
	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestListInvalidWorkerIDIsServerError(t *testing.T) {
	r := newNotificationRouter(t, &stubDispatch{}, &stubQuery{})

	w, env := doRequest(t, r, http.MethodGet, "/api/worker-notifications/not-a-uuid", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if env.Success || env.Error == "" {
		t.Fatalf("envelope = %+v, want success=false with error", env)
	}
}

func TestListReturnsPagination(t *testing.T) {
	page := &services.NotificationPage{
		Notifications: []*services.NotificationListItem{},
		Total:         42, Limit: 20, Offset: 0,
	}
	r := newNotificationRouter(t, &stubDispatch{}, &stubQuery{page: page})

	w, _ := doRequest(t, r, http.MethodGet, "/api/worker-notifications/"+uuid.NewString(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Success    bool `json:"success"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !body.Success || body.Pagination.Total != 42 {
		t.Fatalf("body = %+v", body)
	}
}

func TestAcknowledgeMissingWorkerID(t *testing.T) {
	r := newNotificationRouter(t, &stubDispatch{}, &stubQuery{})

	w, env := doRequest(t, r, http.MethodPut, "/api/worker-notifications/"+uuid.NewString()+"/acknowledge", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Error != "workerId is required" {
		t.Fatalf("error = %q, want workerId is required", env.Error)
	}
}

func TestAcknowledgeUnknownNotification(t *testing.T) {
	r := newNotificationRouter(t, &stubDispatch{err: apierr.NotFound("notification not found")}, &stubQuery{})

	body := `{"workerId":"` + uuid.NewString() + `"}`
	w, env := doRequest(t, r, http.MethodPut, "/api/worker-notifications/"+uuid.NewString()+"/acknowledge", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(env.Error, "not found") {
		t.Fatalf("error = %q, want not found message", env.Error)
	}
}

func TestAcknowledgeForeignWorker(t *testing.T) {
	r := newNotificationRouter(t, &stubDispatch{err: apierr.Ownership("notification does not belong to this worker")}, &stubQuery{})

	body := `{"workerId":"` + uuid.NewString() + `"}`
	w, env := doRequest(t, r, http.MethodPut, "/api/worker-notifications/"+uuid.NewString()+"/acknowledge", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 to avoid existence leakage", w.Code)
	}
	if !strings.Contains(env.Error, "does not belong to this worker") {
		t.Fatalf("error = %q, want ownership message", env.Error)
	}
}

func TestRespondRequiresText(t *testing.T) {
	r := newNotificationRouter(t, &stubDispatch{err: apierr.Validation("response text is required")}, &stubQuery{})

	body := `{"workerId":"` + uuid.NewString() + `"}`
	w, env := doRequest(t, r, http.MethodPut, "/api/worker-notifications/"+uuid.NewString()+"/respond", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Success {
		t.Fatalf("success = true on validation failure")
	}
}

func TestStatsDateOnlyEndDateCoversWholeDay(t *testing.T) {
	query := &stubQuery{stats: &services.NotificationStats{}}
	r := newNotificationRouter(t, &stubDispatch{}, query)

	path := "/api/worker-notifications/stats/" + uuid.NewString() + "?startDate=2026-08-01&endDate=2026-08-29"
	w, _ := doRequest(t, r, http.MethodGet, path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if query.lastStart == nil || query.lastEnd == nil {
		t.Fatalf("window not forwarded: start=%v end=%v", query.lastStart, query.lastEnd)
	}
	if !query.lastStart.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v, want midnight of the first day", query.lastStart)
	}
	// A notification created late on the 29th still falls inside the window.
	lateSameDay := time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)
	if query.lastEnd.Before(lateSameDay) {
		t.Fatalf("end = %v excludes %v", query.lastEnd, lateSameDay)
	}
	if query.lastEnd.Day() != 29 || query.lastEnd.Month() != time.August {
		t.Fatalf("end = %v spills past the requested day", query.lastEnd)
	}
}

func TestStatsEnvelope(t *testing.T) {
	stats := &services.NotificationStats{
		Total:      3,
		ByStatus:   map[string]int64{"pending": 3},
		ByPriority: map[string]int64{"high": 3},
	}
	r := newNotificationRouter(t, &stubDispatch{}, &stubQuery{stats: stats})

	w, _ := doRequest(t, r, http.MethodGet, "/api/worker-notifications/stats/"+uuid.NewString(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Stats   struct {
			Total           int64                  `json:"total"`
			ResponseMetrics map[string]interface{} `json:"responseMetrics"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !body.Success || body.Stats.Total != 3 {
		t.Fatalf("body = %+v", body)
	}

	w, env := doRequest(t, r, http.MethodGet, "/api/worker-notifications/stats/nope", "")
	if w.Code != http.StatusInternalServerError || env.Success {
		t.Fatalf("invalid id status = %d env = %+v, want 500", w.Code, env)
	}
}
