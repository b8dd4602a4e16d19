package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
)

type mockNotifRepo struct {
	listed      []models.Notification
	total       int
	filter      models.NotificationFilter
	markedIDs   []string
	markedAll   bool
	unreadCount int
	countCalls  int
}

func (m *mockNotifRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	m.filter = filter
	return m.listed, m.total, nil
}

func (m *mockNotifRepo) MarkRead(ctx context.Context, recipientID string, recipientType models.UserRole, ids []string) (int64, error) {
	m.markedIDs = ids
	return int64(len(ids)), nil
}

func (m *mockNotifRepo) MarkAllRead(ctx context.Context, recipientID string, recipientType models.UserRole) (int64, error) {
	m.markedAll = true
	return 5, nil
}

func (m *mockNotifRepo) CountUnread(ctx context.Context, recipientID string, recipientType models.UserRole) (int, error) {
	m.countCalls++
	return m.unreadCount, nil
}

type fakeCache struct {
	values  map[string]int
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := c.values[key]; ok {
		*(dest.(*int)) = v
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.values == nil {
		c.values = make(map[string]int)
	}
	c.values[key] = value.(int)
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	delete(c.values, key)
	return nil
}

func TestNotificationServiceList(t *testing.T) {
	repo := &mockNotifRepo{total: 2, listed: []models.Notification{{ID: "n1"}, {ID: "n2"}}}
	svc := NewNotificationService(repo, nil, nil, 0, nil)

	unread := false
	typ := models.NotificationLeaveApproved
	list, page, err := svc.List(context.Background(), "s1", models.RoleStudent, &unread, &typ, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "s1", repo.filter.RecipientID)
	assert.Equal(t, models.RoleStudent, repo.filter.RecipientType)
	require.NotNil(t, repo.filter.IsRead)
	require.NotNil(t, repo.filter.Type)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	repo := &mockNotifRepo{}
	cache := &fakeCache{}
	svc := NewNotificationService(repo, cache, nil, 0, nil)

	affected, err := svc.MarkRead(context.Background(), "s1", models.RoleStudent, models.MarkReadRequest{IDs: []string{"n1", "n2"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	assert.Equal(t, []string{"n1", "n2"}, repo.markedIDs)
	assert.Len(t, cache.deleted, 1)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	repo := &mockNotifRepo{}
	svc := NewNotificationService(repo, nil, nil, 0, nil)

	affected, err := svc.MarkRead(context.Background(), "p1", models.RoleParent, models.MarkReadRequest{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 5, affected)
	assert.True(t, repo.markedAll)
}

func TestNotificationServiceMarkReadEmptyRequest(t *testing.T) {
	svc := NewNotificationService(&mockNotifRepo{}, nil, nil, 0, nil)
	_, err := svc.MarkRead(context.Background(), "s1", models.RoleStudent, models.MarkReadRequest{})
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestNotificationServiceUnreadCountCaches(t *testing.T) {
	repo := &mockNotifRepo{unreadCount: 3}
	cache := &fakeCache{}
	svc := NewNotificationService(repo, cache, nil, time.Minute, nil)

	count, err := svc.UnreadCount(context.Background(), "f1", models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, repo.countCalls)

	// Second read is served from cache.
	count, err = svc.UnreadCount(context.Background(), "f1", models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, repo.countCalls)
}
