package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/workflow"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
	"github.com/tejraval11/student-leave-mgmt/pkg/mailer"
)

type leaveRepository interface {
	Create(ctx context.Context, app *models.LeaveApplication) error
	FindDetail(ctx context.Context, id string) (*models.LeaveDetail, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error)
	Update(ctx context.Context, id string, update models.LeaveUpdate) error
	Delete(ctx context.Context, id string) error
}

type historyRepository interface {
	Upsert(ctx context.Context, entry *models.LeaveHistory) error
	FindByApplication(ctx context.Context, applicationID string) (*models.LeaveHistory, error)
}

type notificationWriter interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
}

type leaveDirectory interface {
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FacultyExists(ctx context.Context, id string) (bool, error)
	StudentIDsByParent(ctx context.Context, parentID string) ([]string, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type emailMetrics interface {
	ObserveEmail(success bool)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	emailTimeout    = 10 * time.Second
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// LeaveService implements the leave application workflow: submission,
// scoped listing, faculty/parent/student transitions and withdrawal.
// Notifications are written in the same flow as the state change; emails
// are dispatched asynchronously and never fail the request.
type LeaveService struct {
	leaves        leaveRepository
	history       historyRepository
	notifications notificationWriter
	directory     leaveDirectory
	audit         auditRecorder
	mailer        mailer.Mailer
	metrics       emailMetrics
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLeaveService constructs a LeaveService instance.
func NewLeaveService(leaves leaveRepository, history historyRepository, notifications notificationWriter, directory leaveDirectory, audit auditRecorder, mail mailer.Mailer, metrics emailMetrics, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{
		leaves:        leaves,
		history:       history,
		notifications: notifications,
		directory:     directory,
		audit:         audit,
		mailer:        mail,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Submit creates a new application for the acting student. Both approval
// tracks start PENDING.
func (s *LeaveService) Submit(ctx context.Context, actor workflow.Actor, req models.CreateLeaveRequest) (*models.LeaveDetail, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit leave applications")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}
	if start.Before(today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date cannot be in the past")
	}

	exists, err := s.directory.FacultyExists(ctx, req.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify faculty")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown faculty")
	}

	student, err := s.directory.FindStudent(ctx, actor.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no student profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	app := &models.LeaveApplication{
		StudentID:            student.ID,
		FacultyID:            req.FacultyID,
		StartDate:            start,
		EndDate:              end,
		Reason:               req.Reason,
		AttachmentURL:        req.AttachmentURL,
		Status:               models.LeavePending,
		ParentApprovalStatus: models.ParentPending,
	}
	if err := s.leaves.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave application")
	}

	detail, err := s.leaves.FindDetail(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created application")
	}

	if err := s.history.Upsert(ctx, &models.LeaveHistory{
		LeaveApplicationID: app.ID,
		StudentID:          app.StudentID,
		Action:             "SUBMITTED",
		PerformedBy:        models.RoleStudent,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record history")
	}

	effects := workflow.SubmissionEffects(detail)
	if err := s.deliverNotifications(ctx, app.ID, effects.Notifications); err != nil {
		return nil, err
	}
	s.dispatchEmails(effects.Emails)

	s.recordAudit(ctx, actor, models.AuditActionLeaveSubmit, app.ID)
	s.logger.Info("leave application submitted",
		zap.String("application_id", app.ID),
		zap.String("student_id", app.StudentID))

	return detail, nil
}

// List returns the applications visible to the actor, newest first.
func (s *LeaveService) List(ctx context.Context, actor workflow.Actor, status *models.LeaveStatus, page, pageSize int) ([]models.LeaveDetail, models.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	var owned []string
	if actor.Role == models.RoleParent {
		ids, err := s.directory.StudentIDsByParent(ctx, actor.SubjectID)
		if err != nil {
			return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve children")
		}
		owned = ids
	}

	filter, err := workflow.Scope(actor, owned)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if status != nil {
		if !status.Valid() {
			return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
		}
		filter.Status = status
	}
	filter.Page = page
	filter.PageSize = pageSize

	list, total, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return list, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one application, with its latest recorded action, if the
// actor is a participant in it.
func (s *LeaveService) Get(ctx context.Context, actor workflow.Actor, id string) (*models.LeaveDetail, error) {
	detail, err := s.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(detail, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant in this application")
	}

	entry, err := s.history.FindByApplication(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	detail.LatestAction = entry

	return detail, nil
}

// Transition applies a reviewer, parent or student action to an
// application and emits its side effects.
func (s *LeaveService) Transition(ctx context.Context, actor workflow.Actor, id string, req models.LeaveActionRequest) (*models.LeaveDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action payload")
	}

	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	detail, err := s.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	delta, err := workflow.Decide(detail, actor, action, req.Comments)
	if err != nil {
		return nil, err
	}

	update := models.LeaveUpdate{
		Status:               delta.Status,
		ParentApprovalStatus: delta.ParentApprovalStatus,
		FacultyComments:      delta.FacultyComments,
		ParentComments:       delta.ParentComments,
	}
	if err := s.leaves.Update(ctx, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	if err := s.history.Upsert(ctx, &models.LeaveHistory{
		LeaveApplicationID: detail.ID,
		StudentID:          detail.StudentID,
		Action:             delta.HistoryAction,
		PerformedBy:        delta.PerformedBy,
		Comments:           optionalString(req.Comments),
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record history")
	}

	applyDelta(detail, delta)

	effects := workflow.TransitionEffects(detail, action)
	if err := s.deliverNotifications(ctx, detail.ID, effects.Notifications); err != nil {
		return nil, err
	}
	s.dispatchEmails(effects.Emails)

	s.recordAudit(ctx, actor, models.AuditActionLeaveAction, detail.ID)
	s.logger.Info("leave application transitioned",
		zap.String("application_id", detail.ID),
		zap.String("action", string(action)),
		zap.String("actor_role", string(actor.Role)))

	return detail, nil
}

// Withdraw hard-deletes a pending application. Only the owning student
// may withdraw, and only while the faculty track is still pending.
func (s *LeaveService) Withdraw(ctx context.Context, actor workflow.Actor, id string) error {
	detail, err := s.findDetail(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleStudent || actor.SubjectID != detail.StudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owning student can withdraw an application")
	}
	if detail.Status != models.LeavePending {
		return appErrors.Clone(appErrors.ErrInvalidState, "only pending applications can be withdrawn")
	}

	if err := s.leaves.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}

	s.recordAudit(ctx, actor, models.AuditActionLeaveAction, id)
	s.logger.Info("leave application withdrawn", zap.String("application_id", id))
	return nil
}

func (s *LeaveService) findDetail(ctx context.Context, id string) (*models.LeaveDetail, error) {
	detail, err := s.leaves.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return detail, nil
}

func (s *LeaveService) deliverNotifications(ctx context.Context, applicationID string, pending []workflow.PendingNotification) error {
	notifications := make([]models.Notification, 0, len(pending))
	for _, p := range pending {
		notifications = append(notifications, models.Notification{
			LeaveApplicationID: applicationID,
			RecipientID:        p.RecipientID,
			RecipientType:      p.RecipientType,
			Type:               p.Type,
			Title:              p.Title,
			Message:            p.Message,
		})
	}
	if err := s.notifications.CreateBatch(ctx, notifications); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notifications")
	}
	return nil
}

// dispatchEmails sends each pending email on its own goroutine. A failed
// send is logged and dropped; the transition has already committed.
func (s *LeaveService) dispatchEmails(pending []workflow.PendingEmail) {
	if s.mailer == nil {
		return
	}
	for _, p := range pending {
		go func(p workflow.PendingEmail) {
			ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
			defer cancel()
			msg := mailer.Message{
				ToName:    p.ToName,
				ToAddress: p.ToAddress,
				Subject:   p.Subject,
				HTML:      p.HTML,
			}
			err := s.mailer.Send(ctx, msg)
			if s.metrics != nil {
				s.metrics.ObserveEmail(err == nil)
			}
			if err != nil {
				s.logger.Warn("email delivery failed",
					zap.String("to", p.ToAddress),
					zap.String("subject", p.Subject),
					zap.Error(err))
			}
		}(p)
	}
}

func (s *LeaveService) recordAudit(ctx context.Context, actor workflow.Actor, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		Action:     action,
		Resource:   "leave_application",
		ResourceID: &resourceID,
		NewValues:  []byte(`{"role":"` + string(actor.Role) + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func applyDelta(detail *models.LeaveDetail, delta *workflow.Delta) {
	if delta.Status != nil {
		detail.Status = *delta.Status
	}
	if delta.ParentApprovalStatus != nil {
		detail.ParentApprovalStatus = *delta.ParentApprovalStatus
	}
	if delta.FacultyComments != nil {
		detail.FacultyComments = delta.FacultyComments
	}
	if delta.ParentComments != nil {
		detail.ParentComments = delta.ParentComments
	}
	detail.UpdatedAt = time.Now().UTC()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
