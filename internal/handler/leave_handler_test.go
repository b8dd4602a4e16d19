package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejraval11/student-leave-mgmt/internal/middleware"
	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/service"
	"github.com/tejraval11/student-leave-mgmt/pkg/response"
)

type stubLeaveRepo struct {
	detail *models.LeaveDetail
}

func (s *stubLeaveRepo) Create(ctx context.Context, app *models.LeaveApplication) error {
	app.ID = "app1"
	return nil
}

func (s *stubLeaveRepo) FindDetail(ctx context.Context, id string) (*models.LeaveDetail, error) {
	return s.detail, nil
}

func (s *stubLeaveRepo) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error) {
	return []models.LeaveDetail{*s.detail}, 1, nil
}

func (s *stubLeaveRepo) Update(ctx context.Context, id string, update models.LeaveUpdate) error {
	return nil
}

func (s *stubLeaveRepo) Delete(ctx context.Context, id string) error { return nil }

type stubHistoryRepo struct{}

func (stubHistoryRepo) Upsert(ctx context.Context, entry *models.LeaveHistory) error { return nil }
func (stubHistoryRepo) FindByApplication(ctx context.Context, applicationID string) (*models.LeaveHistory, error) {
	return nil, nil
}

type stubNotifWriter struct{}

func (stubNotifWriter) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	return nil
}

type stubDirectory struct{}

func (stubDirectory) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id, ParentID: "p1"}, nil
}
func (stubDirectory) FacultyExists(ctx context.Context, id string) (bool, error) { return true, nil }
func (stubDirectory) StudentIDsByParent(ctx context.Context, parentID string) ([]string, error) {
	return nil, nil
}

func stubDetail() *models.LeaveDetail {
	return &models.LeaveDetail{
		LeaveApplication: models.LeaveApplication{
			ID:                   "app1",
			StudentID:            "s1",
			FacultyID:            "f1",
			StartDate:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:              time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			Reason:               "trip",
			Status:               models.LeavePending,
			ParentApprovalStatus: models.ParentPending,
		},
		StudentName:  "Jane Student",
		StudentEmail: "jane@example.com",
		FacultyName:  "Dr. Smith",
		FacultyEmail: "smith@example.com",
		ParentID:     "p1",
		ParentName:   "John Parent",
		ParentEmail:  "parent@example.com",
	}
}

func newTestLeaveHandler() *LeaveHandler {
	svc := service.NewLeaveService(&stubLeaveRepo{detail: stubDetail()}, stubHistoryRepo{}, stubNotifWriter{}, stubDirectory{}, nil, nil, nil, nil, nil)
	return NewLeaveHandler(svc, nil)
}

func testContext(t *testing.T, method, path string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestLeaveHandlerCreateUnauthenticated(t *testing.T) {
	handler := newTestLeaveHandler()
	c, w := testContext(t, http.MethodPost, "/leave-applications", models.CreateLeaveRequest{}, nil)

	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLeaveHandlerCreate(t *testing.T) {
	handler := newTestLeaveHandler()
	start := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	end := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")
	body := models.CreateLeaveRequest{FacultyID: "f1", StartDate: start, EndDate: end, Reason: "trip"}
	c, w := testContext(t, http.MethodPost, "/leave-applications", body, &models.JWTClaims{
		UserID: "u1", Role: models.RoleStudent, SubjectID: "s1",
	})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data)
}

func TestLeaveHandlerTransitionForbidden(t *testing.T) {
	handler := newTestLeaveHandler()
	c, w := testContext(t, http.MethodPatch, "/leave-applications/app1", models.LeaveActionRequest{Action: "APPROVE"}, &models.JWTClaims{
		UserID: "u2", Role: models.RoleStudent, SubjectID: "s1",
	})
	c.Params = gin.Params{{Key: "id", Value: "app1"}}

	handler.Transition(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLeaveHandlerTransitionApprove(t *testing.T) {
	handler := newTestLeaveHandler()
	c, w := testContext(t, http.MethodPatch, "/leave-applications/app1", models.LeaveActionRequest{Action: "APPROVE", Comments: "ok"}, &models.JWTClaims{
		UserID: "u3", Role: models.RoleFaculty, SubjectID: "f1",
	})
	c.Params = gin.Params{{Key: "id", Value: "app1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.LeaveDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.LeaveApproved, envelope.Data.Status)
}

func TestLeaveHandlerWithdrawConflict(t *testing.T) {
	repo := &stubLeaveRepo{detail: stubDetail()}
	repo.detail.Status = models.LeaveApproved
	svc := service.NewLeaveService(repo, stubHistoryRepo{}, stubNotifWriter{}, stubDirectory{}, nil, nil, nil, nil, nil)
	handler := NewLeaveHandler(svc, nil)

	c, w := testContext(t, http.MethodDelete, "/leave-applications/app1", nil, &models.JWTClaims{
		UserID: "u1", Role: models.RoleStudent, SubjectID: "s1",
	})
	c.Params = gin.Params{{Key: "id", Value: "app1"}}

	handler.Withdraw(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
