package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
)

// DirectoryRepository reads the student/faculty/parent reference data.
// These are read-mostly lookup entities; writes happen through seeding
// and account administration, not through the leave workflow.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs a DirectoryRepository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindActorProfile resolves a user account to the domain entity it owns.
// Admins own no entity and resolve to an empty subject id.
func (r *DirectoryRepository) FindActorProfile(ctx context.Context, userID string, role models.UserRole) (*models.ActorProfile, error) {
	profile := &models.ActorProfile{UserID: userID, Role: role}

	var table string
	switch role {
	case models.RoleStudent:
		table = "students"
	case models.RoleFaculty:
		table = "faculty"
	case models.RoleParent:
		table = "parents"
	case models.RoleAdmin:
		return profile, nil
	default:
		return nil, sql.ErrNoRows
	}

	query := fmt.Sprintf("SELECT id FROM %s WHERE user_id = $1 LIMIT 1", table)
	if err := r.db.GetContext(ctx, &profile.SubjectID, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find actor profile: %w", err)
	}
	return profile, nil
}

// FindStudent fetches a student by id.
func (r *DirectoryRepository) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, name, email, roll_number, parent_id, created_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// StudentIDsByParent returns the ids of all students owned by a parent.
func (r *DirectoryRepository) StudentIDsByParent(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT id FROM students WHERE parent_id = $1`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("student ids by parent: %w", err)
	}
	return ids, nil
}

// FacultyExists checks that the referenced faculty row is present.
func (r *DirectoryRepository) FacultyExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM faculty WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check faculty: %w", err)
	}
	return true, nil
}

// ListFaculty returns the faculty roster ordered by name, for the
// application form's approver picker.
func (r *DirectoryRepository) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT id, user_id, name, email, employee_id, department, designation, created_at FROM faculty ORDER BY name ASC`
	var rows []models.Faculty
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return rows, nil
}
