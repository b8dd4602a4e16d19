package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, recipientID string, recipientType models.UserRole, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string, recipientType models.UserRole) (int64, error)
	CountUnread(ctx context.Context, recipientID string, recipientType models.UserRole) (int, error)
}

type notificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// NotificationService serves a recipient's notification feed. The unread
// count is cached briefly in Redis since clients poll it.
type NotificationService struct {
	repo      notificationRepository
	cache     notificationCache
	metrics   cacheMetrics
	unreadTTL time.Duration
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationRepository, cache notificationCache, metrics cacheMetrics, unreadTTL time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if unreadTTL <= 0 {
		unreadTTL = 30 * time.Second
	}
	return &NotificationService{repo: repo, cache: cache, metrics: metrics, unreadTTL: unreadTTL, logger: logger}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string, recipientType models.UserRole, isRead *bool, typ *models.NotificationType, page, pageSize int) ([]models.Notification, models.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	list, total, err := s.repo.List(ctx, models.NotificationFilter{
		RecipientID:   recipientID,
		RecipientType: recipientType,
		IsRead:        isRead,
		Type:          typ,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return list, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MarkRead marks the listed notifications read, or every unread one when
// the request asks for all. Returns the number of rows changed.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID string, recipientType models.UserRole, req models.MarkReadRequest) (int64, error) {
	if !req.All && len(req.IDs) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "either ids or all must be provided")
	}

	var affected int64
	var err error
	if req.All {
		affected, err = s.repo.MarkAllRead(ctx, recipientID, recipientType)
	} else {
		affected, err = s.repo.MarkRead(ctx, recipientID, recipientType, req.IDs)
	}
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.unreadKey(recipientID, recipientType)); err != nil {
			s.logger.Warn("failed to invalidate unread count cache", zap.Error(err))
		}
	}
	return affected, nil
}

// UnreadCount returns the actor's unread notification count, served from
// cache when fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string, recipientType models.UserRole) (int, error) {
	key := s.unreadKey(recipientID, recipientType)

	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	count, err := s.repo.CountUnread(ctx, recipientID, recipientType)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.unreadTTL); err != nil {
			s.logger.Warn("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) unreadKey(recipientID string, recipientType models.UserRole) string {
	return fmt.Sprintf("notifications:unread:%s:%s", recipientType, recipientID)
}
