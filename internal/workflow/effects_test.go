package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

func TestSubmissionEffects(t *testing.T) {
	app := sampleApp(models.LeavePending)
	effects := SubmissionEffects(app)

	require.Len(t, effects.Notifications, 3)
	require.Len(t, effects.Emails, 3)

	student, faculty, parent := effects.Notifications[0], effects.Notifications[1], effects.Notifications[2]

	assert.Equal(t, "s1", student.RecipientID)
	assert.Equal(t, models.RoleStudent, student.RecipientType)
	assert.Equal(t, models.NotificationLeaveSubmitted, student.Type)
	assert.Contains(t, student.Message, "Mar 10, 2025")
	assert.Contains(t, student.Message, "Mar 12, 2025")

	assert.Equal(t, "f1", faculty.RecipientID)
	assert.Equal(t, models.RoleFaculty, faculty.RecipientType)
	assert.Contains(t, faculty.Message, "Jane Student")

	assert.Equal(t, "p1", parent.RecipientID)
	assert.Equal(t, models.RoleParent, parent.RecipientType)
	assert.Equal(t, models.NotificationParentApprovalRequired, parent.Type)

	assert.Equal(t, "jane@example.com", effects.Emails[0].ToAddress)
	assert.Contains(t, effects.Emails[0].HTML, "trip")
	assert.Equal(t, "parent@example.com", effects.Emails[1].ToAddress)
	assert.Contains(t, effects.Emails[1].HTML, "Jane Student")
	assert.Equal(t, "smith@example.com", effects.Emails[2].ToAddress)
}

func TestTransitionEffectsNotificationTypes(t *testing.T) {
	cases := []struct {
		action Action
		typ    models.NotificationType
	}{
		{ActionApprove, models.NotificationLeaveApproved},
		{ActionReject, models.NotificationLeaveRejected},
		{ActionCancel, models.NotificationLeaveCanceled},
		{ActionParentApprove, models.NotificationParentApproved},
		{ActionParentReject, models.NotificationParentRejected},
	}

	for _, tc := range cases {
		effects := TransitionEffects(sampleApp(models.LeavePending), tc.action)
		require.Len(t, effects.Notifications, 1, string(tc.action))
		n := effects.Notifications[0]
		assert.Equal(t, "s1", n.RecipientID)
		assert.Equal(t, models.RoleStudent, n.RecipientType)
		assert.Equal(t, tc.typ, n.Type)
	}
}

func TestTransitionEffectsEmailOnlyForFacultyReview(t *testing.T) {
	assert.Len(t, TransitionEffects(sampleApp(models.LeavePending), ActionApprove).Emails, 1)
	assert.Len(t, TransitionEffects(sampleApp(models.LeavePending), ActionReject).Emails, 1)
	assert.Empty(t, TransitionEffects(sampleApp(models.LeavePending), ActionCancel).Emails)
	assert.Empty(t, TransitionEffects(sampleApp(models.LeavePending), ActionParentApprove).Emails)
	assert.Empty(t, TransitionEffects(sampleApp(models.LeavePending), ActionParentReject).Emails)
}

func TestTransitionEffectsIncludesFacultyComments(t *testing.T) {
	app := sampleApp(models.LeaveApproved)
	comments := "bring a note"
	app.FacultyComments = &comments

	effects := TransitionEffects(app, ActionApprove)
	require.Len(t, effects.Emails, 1)
	assert.Contains(t, effects.Emails[0].HTML, "bring a note")
	assert.True(t, strings.Contains(effects.Emails[0].HTML, "approved"))

	app.FacultyComments = nil
	effects = TransitionEffects(app, ActionApprove)
	assert.NotContains(t, effects.Emails[0].HTML, "Comments:")
}
