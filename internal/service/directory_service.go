package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
)

type facultyLister interface {
	ListFaculty(ctx context.Context) ([]models.Faculty, error)
}

// DirectoryService exposes the faculty roster used by the application
// form's approver picker.
type DirectoryService struct {
	repo   facultyLister
	logger *zap.Logger
}

// NewDirectoryService constructs a DirectoryService instance.
func NewDirectoryService(repo facultyLister, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, logger: logger}
}

// ListFaculty returns all faculty members ordered by name.
func (s *DirectoryService) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	list, err := s.repo.ListFaculty(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return list, nil
}
