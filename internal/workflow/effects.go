package workflow

import (
	"fmt"
	"time"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

// PendingNotification is a notification row to be created for a recipient.
type PendingNotification struct {
	RecipientID   string
	RecipientType models.UserRole
	Type          models.NotificationType
	Title         string
	Message       string
}

// PendingEmail is an email to be attempted after the transition commits.
type PendingEmail struct {
	ToName    string
	ToAddress string
	Subject   string
	HTML      string
}

// Effects is the ordered side-effect list a workflow step produces.
// Notifications are must-succeed; emails are best-effort.
type Effects struct {
	Notifications []PendingNotification
	Emails        []PendingEmail
}

const dateLayout = "Jan 2, 2006"

func formatRange(start, end time.Time) (string, string) {
	return start.Format(dateLayout), end.Format(dateLayout)
}

// SubmissionEffects returns the three notifications (student, faculty,
// parent) and three emails emitted when an application is created.
func SubmissionEffects(app *models.LeaveDetail) Effects {
	start, end := formatRange(app.StartDate, app.EndDate)

	return Effects{
		Notifications: []PendingNotification{
			{
				RecipientID:   app.StudentID,
				RecipientType: models.RoleStudent,
				Type:          models.NotificationLeaveSubmitted,
				Title:         "Leave Application Submitted",
				Message:       fmt.Sprintf("Your leave application for %s to %s has been submitted and is pending approval.", start, end),
			},
			{
				RecipientID:   app.FacultyID,
				RecipientType: models.RoleFaculty,
				Type:          models.NotificationLeaveSubmitted,
				Title:         "New Leave Application",
				Message:       fmt.Sprintf("A new leave application has been submitted by %s for %s to %s.", app.StudentName, start, end),
			},
			{
				RecipientID:   app.ParentID,
				RecipientType: models.RoleParent,
				Type:          models.NotificationParentApprovalRequired,
				Title:         "Leave Application Requires Approval",
				Message:       fmt.Sprintf("Your child %s has submitted a leave application that requires your approval.", app.StudentName),
			},
		},
		Emails: []PendingEmail{
			{
				ToName:    app.StudentName,
				ToAddress: app.StudentEmail,
				Subject:   "Leave Application Submitted",
				HTML:      submittedEmailHTML(app.StudentName, start, end, app.Reason),
			},
			{
				ToName:    app.ParentName,
				ToAddress: app.ParentEmail,
				Subject:   "Leave Application Requires Your Approval",
				HTML:      parentEmailHTML(app.ParentName, app.StudentName, start, end, app.Reason),
			},
			{
				ToName:    app.FacultyName,
				ToAddress: app.FacultyEmail,
				Subject:   "New Leave Application",
				HTML:      fmt.Sprintf("A new leave application has been submitted by %s. Please review it in the system.", app.StudentName),
			},
		},
	}
}

// TransitionEffects returns the single student notification every
// transition emits, plus the student email for APPROVE and REJECT.
// CANCEL and the parent actions produce no email.
func TransitionEffects(app *models.LeaveDetail, action Action) Effects {
	start, end := formatRange(app.StartDate, app.EndDate)

	var n PendingNotification
	n.RecipientID = app.StudentID
	n.RecipientType = models.RoleStudent

	switch action {
	case ActionApprove:
		n.Type = models.NotificationLeaveApproved
		n.Title = "Leave Application Approved"
		n.Message = fmt.Sprintf("Your leave application for %s to %s has been approved.", start, end)
	case ActionReject:
		n.Type = models.NotificationLeaveRejected
		n.Title = "Leave Application Rejected"
		n.Message = fmt.Sprintf("Your leave application for %s to %s has been rejected.", start, end)
	case ActionCancel:
		n.Type = models.NotificationLeaveCanceled
		n.Title = "Leave Application Canceled"
		n.Message = fmt.Sprintf("Your leave application for %s to %s has been canceled.", start, end)
	case ActionParentApprove:
		n.Type = models.NotificationParentApproved
		n.Title = "Parent Approved Leave"
		n.Message = fmt.Sprintf("Parent has approved the leave application for %s to %s.", start, end)
	case ActionParentReject:
		n.Type = models.NotificationParentRejected
		n.Title = "Parent Rejected Leave"
		n.Message = fmt.Sprintf("Parent has rejected the leave application for %s to %s.", start, end)
	}

	effects := Effects{Notifications: []PendingNotification{n}}

	switch action {
	case ActionApprove:
		effects.Emails = []PendingEmail{{
			ToName:    app.StudentName,
			ToAddress: app.StudentEmail,
			Subject:   "Leave Application Approved",
			HTML:      reviewedEmailHTML(app.StudentName, start, end, app.FacultyComments, true),
		}}
	case ActionReject:
		effects.Emails = []PendingEmail{{
			ToName:    app.StudentName,
			ToAddress: app.StudentEmail,
			Subject:   "Leave Application Rejected",
			HTML:      reviewedEmailHTML(app.StudentName, start, end, app.FacultyComments, false),
		}}
	}

	return effects
}

func submittedEmailHTML(studentName, start, end, reason string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Leave Application Submitted</h2>
  <p>Dear %s,</p>
  <p>Your leave application has been successfully submitted and is pending approval.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Leave Details:</h3>
    <p><strong>Start Date:</strong> %s</p>
    <p><strong>End Date:</strong> %s</p>
    <p><strong>Reason:</strong> %s</p>
  </div>
  <p>You will be notified once your application is reviewed by the faculty.</p>
  <p>Best regards,<br>Leave Management System</p>
</div>`, studentName, start, end, reason)
}

func reviewedEmailHTML(studentName, start, end string, comments *string, approved bool) string {
	heading := "Leave Application Rejected"
	color := "#dc3545"
	box := "#f8d7da"
	lede := "Your leave application has been rejected."
	closing := "If you have any questions, please contact your faculty advisor."
	if approved {
		heading = "Leave Application Approved"
		color = "#28a745"
		box = "#d4edda"
		lede = "Your leave application has been approved!"
		closing = "Please ensure you have made arrangements for your studies during this period."
	}

	commentLine := ""
	if comments != nil && *comments != "" {
		commentLine = fmt.Sprintf("<p><strong>Comments:</strong> %s</p>", *comments)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: %s;">%s</h2>
  <p>Dear %s,</p>
  <p>%s</p>
  <div style="background-color: %s; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Leave Details:</h3>
    <p><strong>Start Date:</strong> %s</p>
    <p><strong>End Date:</strong> %s</p>
    %s
  </div>
  <p>%s</p>
  <p>Best regards,<br>Leave Management System</p>
</div>`, color, heading, studentName, lede, box, start, end, commentLine, closing)
}

func parentEmailHTML(parentName, studentName, start, end, reason string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #007bff;">Leave Application Notification</h2>
  <p>Dear %s,</p>
  <p>Your child %s has submitted a leave application that requires your approval.</p>
  <div style="background-color: #e7f3ff; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Leave Details:</h3>
    <p><strong>Student:</strong> %s</p>
    <p><strong>Start Date:</strong> %s</p>
    <p><strong>End Date:</strong> %s</p>
    <p><strong>Reason:</strong> %s</p>
  </div>
  <p>Please log in to the leave management system to review and approve/reject this application.</p>
  <p>Best regards,<br>Leave Management System</p>
</div>`, parentName, studentName, studentName, start, end, reason)
}
