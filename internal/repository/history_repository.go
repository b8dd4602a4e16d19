package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

// HistoryRepository stores the latest action taken on each application.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new instance of HistoryRepository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert writes the history row for an application, replacing any
// previous action. leave_application_id carries a unique constraint.
func (r *HistoryRepository) Upsert(ctx context.Context, entry *models.LeaveHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO leave_history (id, leave_application_id, student_id, action, performed_by, comments, created_at)
		VALUES (:id, :leave_application_id, :student_id, :action, :performed_by, :comments, :created_at)
		ON CONFLICT (leave_application_id) DO UPDATE SET
			action = EXCLUDED.action,
			performed_by = EXCLUDED.performed_by,
			comments = EXCLUDED.comments,
			created_at = EXCLUDED.created_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert leave history: %w", err)
	}
	return nil
}

// FindByApplication returns the history row for an application, if any.
func (r *HistoryRepository) FindByApplication(ctx context.Context, applicationID string) (*models.LeaveHistory, error) {
	const query = `SELECT id, leave_application_id, student_id, action, performed_by, comments, created_at FROM leave_history WHERE leave_application_id = $1 LIMIT 1`
	var entry models.LeaveHistory
	if err := r.db.GetContext(ctx, &entry, query, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave history: %w", err)
	}
	return &entry, nil
}
