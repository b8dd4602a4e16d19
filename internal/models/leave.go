package models

import "time"

// LeaveStatus is the faculty approval track of a leave application.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
	LeaveCanceled LeaveStatus = "CANCELED"
)

// Valid reports whether the value is a known leave status.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected, LeaveCanceled:
		return true
	}
	return false
}

// ParentApprovalStatus is the parent approval track. The two tracks are
// independent: neither transition consults the other.
type ParentApprovalStatus string

const (
	ParentPending  ParentApprovalStatus = "PENDING"
	ParentApproved ParentApprovalStatus = "APPROVED"
	ParentRejected ParentApprovalStatus = "REJECTED"
)

// LeaveApplication is the central workflow entity.
type LeaveApplication struct {
	ID                   string               `db:"id" json:"id"`
	StudentID            string               `db:"student_id" json:"student_id"`
	FacultyID            string               `db:"faculty_id" json:"faculty_id"`
	StartDate            time.Time            `db:"start_date" json:"start_date"`
	EndDate              time.Time            `db:"end_date" json:"end_date"`
	Reason               string               `db:"reason" json:"reason"`
	AttachmentURL        *string              `db:"attachment_url" json:"attachment_url,omitempty"`
	Status               LeaveStatus          `db:"status" json:"status"`
	ParentApprovalStatus ParentApprovalStatus `db:"parent_approval_status" json:"parent_approval_status"`
	FacultyComments      *string              `db:"faculty_comments" json:"faculty_comments,omitempty"`
	ParentComments       *string              `db:"parent_comments" json:"parent_comments,omitempty"`
	CreatedAt            time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time            `db:"updated_at" json:"updated_at"`
}

// Effective reports whether both approval tracks have completed
// affirmatively. Derived only; no transition rule consults it.
func (a LeaveApplication) Effective() bool {
	return a.Status == LeaveApproved && a.ParentApprovalStatus == ParentApproved
}

// LeaveDetail is a leave application joined with the name/email
// projections of its student, faculty and the student's parent.
type LeaveDetail struct {
	LeaveApplication
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	FacultyName  string `db:"faculty_name" json:"faculty_name"`
	FacultyEmail string `db:"faculty_email" json:"faculty_email"`
	ParentID     string `db:"parent_id" json:"parent_id"`
	ParentName   string `db:"parent_name" json:"parent_name"`
	ParentEmail  string `db:"parent_email" json:"parent_email"`

	// LatestAction is populated on single-item reads only.
	LatestAction *LeaveHistory `db:"-" json:"latest_action,omitempty"`
}

// LeaveFilter captures the scope restriction plus optional filters for
// listing applications. Exactly one of the scope fields is set for
// non-admin actors; Unrestricted is the admin scope.
type LeaveFilter struct {
	StudentID    string
	FacultyID    string
	StudentIDs   []string
	Unrestricted bool

	Status   *LeaveStatus
	Page     int
	PageSize int
}

// CreateLeaveRequest is the student submission payload. Dates accept
// YYYY-MM-DD or RFC 3339.
type CreateLeaveRequest struct {
	FacultyID     string  `json:"faculty_id" validate:"required"`
	StartDate     string  `json:"start_date" validate:"required"`
	EndDate       string  `json:"end_date" validate:"required"`
	Reason        string  `json:"reason" validate:"required"`
	AttachmentURL *string `json:"attachment_url,omitempty" validate:"omitempty,url"`
}

// LeaveActionRequest carries a reviewer or parent decision.
type LeaveActionRequest struct {
	Action   string `json:"action" validate:"required"`
	Comments string `json:"comments"`
}

// LeaveUpdate carries the fields a transition changes. Nil fields are
// left untouched.
type LeaveUpdate struct {
	Status               *LeaveStatus
	ParentApprovalStatus *ParentApprovalStatus
	FacultyComments      *string
	ParentComments       *string
}

// LeaveHistory records the most recent action taken on an application.
// One row per application; a newer action replaces the previous one.
type LeaveHistory struct {
	ID                 string    `db:"id" json:"id"`
	LeaveApplicationID string    `db:"leave_application_id" json:"leave_application_id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	Action             string    `db:"action" json:"action"`
	PerformedBy        UserRole  `db:"performed_by" json:"performed_by"`
	Comments           *string   `db:"comments" json:"comments,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
