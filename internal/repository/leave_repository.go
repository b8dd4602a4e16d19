package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

// LeaveRepository provides database access for leave applications.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new instance of LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const detailColumns = `
	la.id, la.student_id, la.faculty_id, la.start_date, la.end_date, la.reason,
	la.attachment_url, la.status, la.parent_approval_status,
	la.faculty_comments, la.parent_comments, la.created_at, la.updated_at,
	s.name AS student_name, s.email AS student_email,
	f.name AS faculty_name, f.email AS faculty_email,
	p.id AS parent_id, p.name AS parent_name, p.email AS parent_email`

const detailJoins = `
	FROM leave_applications la
	JOIN students s ON s.id = la.student_id
	JOIN faculty f ON f.id = la.faculty_id
	JOIN parents p ON p.id = s.parent_id`

// Create inserts a new leave application.
func (r *LeaveRepository) Create(ctx context.Context, app *models.LeaveApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	const query = `INSERT INTO leave_applications (id, student_id, faculty_id, start_date, end_date, reason, attachment_url, status, parent_approval_status, faculty_comments, parent_comments, created_at, updated_at) VALUES (:id, :student_id, :faculty_id, :start_date, :end_date, :reason, :attachment_url, :status, :parent_approval_status, :faculty_comments, :parent_comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create leave application: %w", err)
	}
	return nil
}

// FindDetail returns one application with its joined participant
// projections.
func (r *LeaveRepository) FindDetail(ctx context.Context, id string) (*models.LeaveDetail, error) {
	query := "SELECT" + detailColumns + detailJoins + " WHERE la.id = $1 LIMIT 1"
	var detail models.LeaveDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave application: %w", err)
	}
	return &detail, nil
}

// List returns applications matching the filter, newest first, plus the
// total count for pagination.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	switch {
	case filter.StudentID != "":
		conditions = append(conditions, fmt.Sprintf("la.student_id = $%d", argIdx))
		args = append(args, filter.StudentID)
		argIdx++
	case filter.FacultyID != "":
		conditions = append(conditions, fmt.Sprintf("la.faculty_id = $%d", argIdx))
		args = append(args, filter.FacultyID)
		argIdx++
	case filter.StudentIDs != nil:
		conditions = append(conditions, fmt.Sprintf("la.student_id = ANY($%d)", argIdx))
		args = append(args, pq.Array(filter.StudentIDs))
		argIdx++
	case !filter.Unrestricted:
		return []models.LeaveDetail{}, 0, nil
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("la.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*)" + detailJoins + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave applications: %w", err)
	}

	query := "SELECT" + detailColumns + detailJoins + where +
		fmt.Sprintf(" ORDER BY la.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows := []models.LeaveDetail{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave applications: %w", err)
	}
	return rows, total, nil
}

// Update applies a transition's field changes to an application.
func (r *LeaveRepository) Update(ctx context.Context, id string, update models.LeaveUpdate) error {
	sets := []string{}
	args := []interface{}{id}
	argIdx := 2

	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *update.Status)
		argIdx++
	}
	if update.ParentApprovalStatus != nil {
		sets = append(sets, fmt.Sprintf("parent_approval_status = $%d", argIdx))
		args = append(args, *update.ParentApprovalStatus)
		argIdx++
	}
	if update.FacultyComments != nil {
		sets = append(sets, fmt.Sprintf("faculty_comments = $%d", argIdx))
		args = append(args, *update.FacultyComments)
		argIdx++
	}
	if update.ParentComments != nil {
		sets = append(sets, fmt.Sprintf("parent_comments = $%d", argIdx))
		args = append(args, *update.ParentComments)
		argIdx++
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE leave_applications SET %s WHERE id = $1", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update leave application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leave application: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an application. Dependent notification and history rows
// are removed by ON DELETE CASCADE.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM leave_applications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete leave application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete leave application: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
