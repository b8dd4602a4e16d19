// Package workflow implements the leave approval state machine: which
// role may apply which action to an application, the field delta each
// action produces, and the notifications and emails each action emits.
//
// The package is deliberately free of storage and transport concerns.
// Decisions and effects are returned as values; callers persist the
// delta and execute the pending effects.
package workflow

import (
	"github.com/tejraval11/student-leave-mgmt/internal/models"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
)

// Action is a state-changing request against a leave application.
type Action string

const (
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionCancel        Action = "CANCEL"
	ActionParentApprove Action = "PARENT_APPROVE"
	ActionParentReject  Action = "PARENT_REJECT"
)

// ParseAction converts a raw string to an Action, rejecting unknown values.
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	switch a {
	case ActionApprove, ActionReject, ActionCancel, ActionParentApprove, ActionParentReject:
		return a, nil
	}
	return "", appErrors.Clone(appErrors.ErrInvalidAction, "invalid action")
}

// Actor identifies the requester: its role and the id of the domain
// entity it owns (student/faculty/parent id; empty for admins).
type Actor struct {
	Role      models.UserRole
	SubjectID string
}

// Delta is the field update a legal transition produces. Nil fields are
// untouched. HistoryAction/PerformedBy feed the latest-action record.
type Delta struct {
	Status               *models.LeaveStatus
	ParentApprovalStatus *models.ParentApprovalStatus
	FacultyComments      *string
	ParentComments       *string

	HistoryAction string
	PerformedBy   models.UserRole
}

// Decide validates the requested action for the actor against the
// current application state and returns the resulting delta.
//
// The faculty and parent tracks are independent: APPROVE/REJECT never
// consult parent_approval_status and vice versa. Repeated APPROVE/REJECT
// on an already-terminal application overwrites silently; only CANCEL
// requires the PENDING state.
func Decide(app *models.LeaveDetail, actor Actor, action Action, comments string) (*Delta, error) {
	switch action {
	case ActionApprove, ActionReject:
		if actor.Role != models.RoleFaculty && actor.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty can review leave")
		}
		if actor.Role == models.RoleFaculty && actor.SubjectID != app.FacultyID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
		}
		status := models.LeaveApproved
		history := "APPROVED"
		if action == ActionReject {
			status = models.LeaveRejected
			history = "REJECTED"
		}
		return &Delta{
			Status:          &status,
			FacultyComments: optional(comments),
			HistoryAction:   history,
			PerformedBy:     models.RoleFaculty,
		}, nil

	case ActionCancel:
		if actor.Role != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can cancel their leave")
		}
		if actor.SubjectID != app.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
		}
		if app.Status != models.LeavePending {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "can only cancel pending applications")
		}
		status := models.LeaveCanceled
		return &Delta{
			Status:        &status,
			HistoryAction: "CANCELED",
			PerformedBy:   models.RoleStudent,
		}, nil

	case ActionParentApprove, ActionParentReject:
		if actor.Role != models.RoleParent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents can review leave")
		}
		if actor.SubjectID != app.ParentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
		}
		status := models.ParentApproved
		history := "PARENT_APPROVED"
		if action == ActionParentReject {
			status = models.ParentRejected
			history = "PARENT_REJECTED"
		}
		return &Delta{
			ParentApprovalStatus: &status,
			ParentComments:       optional(comments),
			HistoryAction:        history,
			PerformedBy:          models.RoleParent,
		}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrInvalidAction, "invalid action")
}

// CanView reports whether the actor may read a single application.
func CanView(app *models.LeaveDetail, actor Actor) bool {
	switch actor.Role {
	case models.RoleStudent:
		return app.StudentID == actor.SubjectID
	case models.RoleFaculty:
		return app.FacultyID == actor.SubjectID
	case models.RoleParent:
		return app.ParentID == actor.SubjectID
	case models.RoleAdmin:
		return true
	}
	return false
}

// Scope computes the listing restriction for an actor. Parents see the
// applications of the students they own; ownedStudentIDs carries that
// set and is ignored for other roles. Admin listing is unrestricted.
func Scope(actor Actor, ownedStudentIDs []string) (models.LeaveFilter, error) {
	switch actor.Role {
	case models.RoleStudent:
		return models.LeaveFilter{StudentID: actor.SubjectID}, nil
	case models.RoleFaculty:
		return models.LeaveFilter{FacultyID: actor.SubjectID}, nil
	case models.RoleParent:
		ids := ownedStudentIDs
		if ids == nil {
			ids = []string{}
		}
		return models.LeaveFilter{StudentIDs: ids}, nil
	case models.RoleAdmin:
		return models.LeaveFilter{Unrestricted: true}, nil
	}
	return models.LeaveFilter{}, appErrors.Clone(appErrors.ErrForbidden, "invalid role")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
