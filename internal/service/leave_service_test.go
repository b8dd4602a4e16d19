package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/workflow"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
	"github.com/tejraval11/student-leave-mgmt/pkg/mailer"
)

type mockLeaveRepo struct {
	created   *models.LeaveApplication
	detail    *models.LeaveDetail
	findErr   error
	updated   *models.LeaveUpdate
	updateErr error
	deletedID string
	deleteErr error
	listed    []models.LeaveDetail
	listTotal int
	filter    models.LeaveFilter
}

func (m *mockLeaveRepo) Create(ctx context.Context, app *models.LeaveApplication) error {
	app.ID = "app1"
	m.created = app
	return nil
}

func (m *mockLeaveRepo) FindDetail(ctx context.Context, id string) (*models.LeaveDetail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.detail, nil
}

func (m *mockLeaveRepo) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error) {
	m.filter = filter
	return m.listed, m.listTotal, nil
}

func (m *mockLeaveRepo) Update(ctx context.Context, id string, update models.LeaveUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = &update
	return nil
}

func (m *mockLeaveRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

type mockHistoryRepo struct {
	entries []*models.LeaveHistory
	latest  *models.LeaveHistory
	err     error
}

func (m *mockHistoryRepo) Upsert(ctx context.Context, entry *models.LeaveHistory) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) FindByApplication(ctx context.Context, applicationID string) (*models.LeaveHistory, error) {
	if m.latest == nil {
		return nil, sql.ErrNoRows
	}
	return m.latest, nil
}

type mockNotifWriter struct {
	batches [][]models.Notification
	err     error
}

func (m *mockNotifWriter) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, notifications)
	return nil
}

type mockDirectory struct {
	student       *models.Student
	facultyExists bool
	childIDs      []string
}

func (m *mockDirectory) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

func (m *mockDirectory) FacultyExists(ctx context.Context, id string) (bool, error) {
	return m.facultyExists, nil
}

func (m *mockDirectory) StudentIDsByParent(ctx context.Context, parentID string) ([]string, error) {
	return m.childIDs, nil
}

type mockAudit struct {
	logs []*models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	done chan struct{}
}

func newRecordingMailer(expect int) *recordingMailer {
	m := &recordingMailer{done: make(chan struct{}, expect)}
	return m
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *recordingMailer) wait(t *testing.T, n int) []mailer.Message {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for email %d", i+1)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func sampleDetail(status models.LeaveStatus) *models.LeaveDetail {
	return &models.LeaveDetail{
		LeaveApplication: models.LeaveApplication{
			ID:                   "app1",
			StudentID:            "s1",
			FacultyID:            "f1",
			StartDate:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:              time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			Reason:               "trip",
			Status:               status,
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

func newLeaveService(leaves *mockLeaveRepo, history *mockHistoryRepo, notifs *mockNotifWriter, dir *mockDirectory, mail mailer.Mailer) *LeaveService {
	return NewLeaveService(leaves, history, notifs, dir, &mockAudit{}, mail, nil, nil, nil)
}

func TestLeaveServiceSubmit(t *testing.T) {
	leaves := &mockLeaveRepo{detail: sampleDetail(models.LeavePending)}
	history := &mockHistoryRepo{}
	notifs := &mockNotifWriter{}
	mail := newRecordingMailer(3)
	dir := &mockDirectory{facultyExists: true, student: &models.Student{ID: "s1", ParentID: "p1"}}
	svc := newLeaveService(leaves, history, notifs, dir, mail)

	start := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	end := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")
	detail, err := svc.Submit(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}, models.CreateLeaveRequest{
		FacultyID: "f1",
		StartDate: start,
		EndDate:   end,
		Reason:    "trip",
	})
	require.NoError(t, err)
	assert.Equal(t, "app1", detail.ID)

	require.NotNil(t, leaves.created)
	assert.Equal(t, models.LeavePending, leaves.created.Status)
	assert.Equal(t, models.ParentPending, leaves.created.ParentApprovalStatus)

	require.Len(t, history.entries, 1)
	assert.Equal(t, "SUBMITTED", history.entries[0].Action)

	require.Len(t, notifs.batches, 1)
	assert.Len(t, notifs.batches[0], 3)
	assert.Equal(t, "app1", notifs.batches[0][0].LeaveApplicationID)

	sent := mail.wait(t, 3)
	assert.Len(t, sent, 3)
}

func TestLeaveServiceSubmitValidation(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{facultyExists: true}, nil)
	actor := workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}
	future := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	later := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")

	cases := []struct {
		name string
		req  models.CreateLeaveRequest
	}{
		{"missing fields", models.CreateLeaveRequest{FacultyID: "f1"}},
		{"bad date", models.CreateLeaveRequest{FacultyID: "f1", StartDate: "soon", EndDate: later, Reason: "r"}},
		{"start after end", models.CreateLeaveRequest{FacultyID: "f1", StartDate: later, EndDate: future, Reason: "r"}},
		{"start equals end", models.CreateLeaveRequest{FacultyID: "f1", StartDate: future, EndDate: future, Reason: "r"}},
		{"start in past", models.CreateLeaveRequest{FacultyID: "f1", StartDate: "2020-01-01", EndDate: later, Reason: "r"}},
	}
	for _, tc := range cases {
		_, err := svc.Submit(context.Background(), actor, tc.req)
		require.Error(t, err, tc.name)
		assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code, tc.name)
	}
}

func TestLeaveServiceSubmitUnknownFaculty(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{facultyExists: false}, nil)
	start := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	end := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")

	_, err := svc.Submit(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}, models.CreateLeaveRequest{
		FacultyID: "ghost", StartDate: start, EndDate: end, Reason: "trip",
	})
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestLeaveServiceSubmitWithoutProfile(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{facultyExists: true}, nil)
	start := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02")
	end := time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")

	_, err := svc.Submit(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "ghost"}, models.CreateLeaveRequest{
		FacultyID: "f1", StartDate: start, EndDate: end, Reason: "trip",
	})
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestLeaveServiceSubmitByFaculty(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)
	_, err := svc.Submit(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, models.CreateLeaveRequest{})
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestLeaveServiceTransitionApprove(t *testing.T) {
	leaves := &mockLeaveRepo{detail: sampleDetail(models.LeavePending)}
	history := &mockHistoryRepo{}
	notifs := &mockNotifWriter{}
	mail := newRecordingMailer(1)
	svc := newLeaveService(leaves, history, notifs, &mockDirectory{}, mail)

	detail, err := svc.Transition(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, "app1", models.LeaveActionRequest{Action: "APPROVE", Comments: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, detail.Status)
	assert.Equal(t, models.ParentPending, detail.ParentApprovalStatus)

	require.NotNil(t, leaves.updated)
	require.NotNil(t, leaves.updated.Status)
	assert.Equal(t, models.LeaveApproved, *leaves.updated.Status)

	require.Len(t, history.entries, 1)
	assert.Equal(t, "APPROVED", history.entries[0].Action)
	assert.Equal(t, models.RoleFaculty, history.entries[0].PerformedBy)

	require.Len(t, notifs.batches, 1)
	require.Len(t, notifs.batches[0], 1)
	assert.Equal(t, models.NotificationLeaveApproved, notifs.batches[0][0].Type)

	sent := mail.wait(t, 1)
	assert.Contains(t, sent[0].HTML, "ok")
}

func TestLeaveServiceTransitionParentApprove(t *testing.T) {
	leaves := &mockLeaveRepo{detail: sampleDetail(models.LeavePending)}
	notifs := &mockNotifWriter{}
	svc := newLeaveService(leaves, &mockHistoryRepo{}, notifs, &mockDirectory{}, nil)

	detail, err := svc.Transition(context.Background(), workflow.Actor{Role: models.RoleParent, SubjectID: "p1"}, "app1", models.LeaveActionRequest{Action: "PARENT_APPROVE"})
	require.NoError(t, err)
	assert.Equal(t, models.ParentApproved, detail.ParentApprovalStatus)
	assert.Equal(t, models.LeavePending, detail.Status)
	require.NotNil(t, leaves.updated)
	assert.Nil(t, leaves.updated.Status)
}

func TestLeaveServiceTransitionInvalidAction(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{detail: sampleDetail(models.LeavePending)}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)
	_, err := svc.Transition(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, "app1", models.LeaveActionRequest{Action: "ESCALATE"})
	assert.Equal(t, "INVALID_ACTION", appErrors.FromError(err).Code)
}

func TestLeaveServiceTransitionNotFound(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{findErr: sql.ErrNoRows}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)
	_, err := svc.Transition(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, "missing", models.LeaveActionRequest{Action: "APPROVE"})
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestLeaveServiceTransitionNotificationFailureFails(t *testing.T) {
	notifs := &mockNotifWriter{err: assert.AnError}
	svc := newLeaveService(&mockLeaveRepo{detail: sampleDetail(models.LeavePending)}, &mockHistoryRepo{}, notifs, &mockDirectory{}, nil)
	_, err := svc.Transition(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, "app1", models.LeaveActionRequest{Action: "APPROVE"})
	assert.Equal(t, "INTERNAL_ERROR", appErrors.FromError(err).Code)
}

func TestLeaveServiceListParentScope(t *testing.T) {
	leaves := &mockLeaveRepo{}
	svc := newLeaveService(leaves, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{childIDs: []string{"s1", "s2"}}, nil)

	_, page, err := svc.List(context.Background(), workflow.Actor{Role: models.RoleParent, SubjectID: "p1"}, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, leaves.filter.StudentIDs)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
}

func TestLeaveServiceListStatusFilter(t *testing.T) {
	leaves := &mockLeaveRepo{}
	svc := newLeaveService(leaves, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)

	status := models.LeavePending
	_, _, err := svc.List(context.Background(), workflow.Actor{Role: models.RoleAdmin}, &status, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, leaves.filter.Status)
	assert.True(t, leaves.filter.Unrestricted)

	bad := models.LeaveStatus("MAYBE")
	_, _, err = svc.List(context.Background(), workflow.Actor{Role: models.RoleAdmin}, &bad, 1, 10)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestLeaveServiceGetVisibility(t *testing.T) {
	history := &mockHistoryRepo{latest: &models.LeaveHistory{Action: "SUBMITTED", PerformedBy: models.RoleStudent}}
	svc := newLeaveService(&mockLeaveRepo{detail: sampleDetail(models.LeavePending)}, history, &mockNotifWriter{}, &mockDirectory{}, nil)

	detail, err := svc.Get(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}, "app1")
	require.NoError(t, err)
	require.NotNil(t, detail.LatestAction)
	assert.Equal(t, "SUBMITTED", detail.LatestAction.Action)

	_, err = svc.Get(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s2"}, "app1")
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}

func TestLeaveServiceWithdraw(t *testing.T) {
	leaves := &mockLeaveRepo{detail: sampleDetail(models.LeavePending)}
	svc := newLeaveService(leaves, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)

	err := svc.Withdraw(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}, "app1")
	require.NoError(t, err)
	assert.Equal(t, "app1", leaves.deletedID)
}

func TestLeaveServiceWithdrawGuards(t *testing.T) {
	svc := newLeaveService(&mockLeaveRepo{detail: sampleDetail(models.LeaveApproved)}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)
	err := svc.Withdraw(context.Background(), workflow.Actor{Role: models.RoleStudent, SubjectID: "s1"}, "app1")
	assert.Equal(t, "INVALID_STATE", appErrors.FromError(err).Code)

	svc = newLeaveService(&mockLeaveRepo{detail: sampleDetail(models.LeavePending)}, &mockHistoryRepo{}, &mockNotifWriter{}, &mockDirectory{}, nil)
	err = svc.Withdraw(context.Background(), workflow.Actor{Role: models.RoleFaculty, SubjectID: "f1"}, "app1")
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}
