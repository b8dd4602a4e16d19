package models

import "time"

// NotificationType is the event kind a notification reports.
type NotificationType string

const (
	NotificationLeaveSubmitted         NotificationType = "LEAVE_SUBMITTED"
	NotificationParentApprovalRequired NotificationType = "PARENT_APPROVAL_REQUIRED"
	NotificationLeaveApproved          NotificationType = "LEAVE_APPROVED"
	NotificationLeaveRejected          NotificationType = "LEAVE_REJECTED"
	NotificationLeaveCanceled          NotificationType = "LEAVE_CANCELED"
	NotificationParentApproved         NotificationType = "PARENT_APPROVED"
	NotificationParentRejected         NotificationType = "PARENT_REJECTED"
)

// Notification is one row per (application, recipient) per significant
// event. Only the is_read flag is ever mutated after creation.
type Notification struct {
	ID                 string           `db:"id" json:"id"`
	LeaveApplicationID string           `db:"leave_application_id" json:"leave_application_id"`
	RecipientID        string           `db:"recipient_id" json:"recipient_id"`
	RecipientType      UserRole         `db:"recipient_type" json:"recipient_type"`
	Type               NotificationType `db:"type" json:"type"`
	Title              string           `db:"title" json:"title"`
	Message            string           `db:"message" json:"message"`
	IsRead             bool             `db:"is_read" json:"is_read"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
}

// MarkReadRequest marks the listed notifications read, or all of the
// recipient's unread notifications when All is set.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// NotificationFilter scopes notification queries to a recipient and
// optionally narrows by read state and event type.
type NotificationFilter struct {
	RecipientID   string
	RecipientType UserRole
	IsRead        *bool
	Type          *NotificationType
	Page          int
	PageSize      int
}
