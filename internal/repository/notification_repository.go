package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

// NotificationRepository provides database access for notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts a set of notifications in one transaction so a
// transition either records all of its notifications or none.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification batch: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO notifications (id, leave_application_id, recipient_id, recipient_type, type, title, message, is_read, created_at) VALUES (:id, :leave_application_id, :recipient_id, :recipient_type, :type, :title, :message, :is_read, :created_at)`
	now := time.Now().UTC()
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
		notifications[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, notifications[i]); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification batch: %w", err)
	}
	return nil
}

// List returns a recipient's notifications, newest first, plus the total
// count for pagination.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	conditions := []string{"recipient_id = $1", "recipient_type = $2"}
	args := []interface{}{filter.RecipientID, filter.RecipientType}
	argIdx := 3

	if filter.IsRead != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", argIdx))
		args = append(args, *filter.IsRead)
		argIdx++
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *filter.Type)
		argIdx++
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM notifications" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := "SELECT id, leave_application_id, recipient_id, recipient_type, type, title, message, is_read, created_at FROM notifications" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows := []models.Notification{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return rows, total, nil
}

// MarkRead marks the given notifications read, restricted to the
// recipient so one user cannot mark another's rows. Returns the number
// of rows changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID string, recipientType models.UserRole, ids []string) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND recipient_type = $2 AND id = ANY($3) AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipientID, recipientType, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return affected, nil
}

// MarkAllRead marks every unread notification for the recipient read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, recipientType models.UserRole) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND recipient_type = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipientID, recipientType)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}

// CountUnread returns the recipient's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string, recipientType models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND recipient_type = $2 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID, recipientType); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
