package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

func TestNotificationRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "app1", "s1", "STUDENT", "LEAVE_SUBMITTED", "Leave Application Submitted", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "app1", "f1", "FACULTY", "LEAVE_SUBMITTED", "New Leave Application", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	batch := []models.Notification{
		{LeaveApplicationID: "app1", RecipientID: "s1", RecipientType: models.RoleStudent, Type: models.NotificationLeaveSubmitted, Title: "Leave Application Submitted", Message: "m"},
		{LeaveApplicationID: "app1", RecipientID: "f1", RecipientType: models.RoleFaculty, Type: models.NotificationLeaveSubmitted, Title: "New Leave Application", Message: "m"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
	assert.NotEmpty(t, batch[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateBatchEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
}

func TestNotificationRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	unread := false
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND recipient_type = $2 AND is_read = $3")).
		WithArgs("s1", "STUDENT", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, leave_application_id,(.+)FROM notifications WHERE recipient_id = \\$1 AND recipient_type = \\$2 AND is_read = \\$3 ORDER BY created_at DESC LIMIT \\$4 OFFSET \\$5").
		WithArgs("s1", "STUDENT", false, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "leave_application_id", "recipient_id", "recipient_type", "type", "title", "message", "is_read", "created_at"}).
			AddRow("n1", "app1", "s1", "STUDENT", "LEAVE_APPROVED", "Leave Application Approved", "m", false, time.Now()))

	list, total, err := repo.List(context.Background(), models.NotificationFilter{
		RecipientID:   "s1",
		RecipientType: models.RoleStudent,
		IsRead:        &unread,
		Page:          1,
		PageSize:      20,
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE recipient_id = \\$1 AND recipient_type = \\$2 AND id = ANY\\(\\$3\\) AND is_read = FALSE").
		WithArgs("s1", "STUDENT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.MarkRead(context.Background(), "s1", models.RoleStudent, []string{"n1", "n2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE recipient_id = \\$1 AND recipient_type = \\$2 AND is_read = FALSE").
		WithArgs("p1", "PARENT").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.MarkAllRead(context.Background(), "p1", models.RoleParent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCountUnread(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND recipient_type = $2 AND is_read = FALSE")).
		WithArgs("f1", "FACULTY").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountUnread(context.Background(), "f1", models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
