package inapp

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu    sync.Mutex
	items []Notification
}

func (m *memoryStore) Create(_ context.Context, p CreateParams) (Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := Notification{
		ID: uuid.New(), UserID: p.UserID, Type: p.Type, Title: p.Title, Content: p.Content,
		ResourceID: p.ResourceID, ResourceType: p.ResourceType, CreatedAt: time.Now(),
	}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memoryStore) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []Notification
	for _, n := range m.items {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	start := min(offset, len(mine))
	end := min(start+limit, len(mine))
	return mine[start:end], len(mine), nil
}

func (m *memoryStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return apperr.NotFound(errNotFound)
}

func (m *memoryStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.items {
		if n.ID == id && n.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound(errNotFound)
}

func (m *memoryStore) DeleteByResource(_ context.Context, resourceType string, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var removed int64
	for _, n := range m.items {
		if n.ResourceType != nil && *n.ResourceType == resourceType && n.ResourceID != nil && *n.ResourceID == id {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	m.items = kept
	return removed, nil
}

func newService() (*Service, *memoryStore) {
	store := &memoryStore{}
	return NewService(store, logger.NewWithWriter("test", io.Discard)), store
}

func TestSendAndInbox(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	user := uuid.New()
	lead := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Send(ctx, SendParams{UserID: user, Type: TypeCreated, Title: "New lead", ResourceID: &lead, ResourceType: "lead"}))
	}
	require.NoError(t, svc.Send(ctx, SendParams{UserID: uuid.New(), Type: TypeCreated, Title: "New lead"}))

	page, err := svc.List(ctx, user, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.Limit)

	unread, err := svc.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	require.NoError(t, svc.MarkRead(ctx, user, page.Items[0].ID))
	marked, err := svc.MarkAllRead(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	unread, err = svc.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUsersCannotTouchOthersNotifications(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	owner := uuid.New()
	require.NoError(t, svc.Send(ctx, SendParams{UserID: owner, Type: TypeDeleted, Title: "Lead deleted"}))
	id := store.items[0].ID

	err := svc.MarkRead(ctx, uuid.New(), id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.Delete(ctx, uuid.New(), id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, owner, id))
	assert.Empty(t, store.items)
}

func TestDeleteByResourceDrainsOnlyThatResource(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	lead, other := uuid.New(), uuid.New()

	require.NoError(t, svc.Send(ctx, SendParams{UserID: uuid.New(), Type: TypeCreated, Title: "a", ResourceID: &lead, ResourceType: "lead"}))
	require.NoError(t, svc.Send(ctx, SendParams{UserID: uuid.New(), Type: TypeTransferred, Title: "b", ResourceID: &lead, ResourceType: "lead"}))
	require.NoError(t, svc.Send(ctx, SendParams{UserID: uuid.New(), Type: TypeCreated, Title: "c", ResourceID: &other, ResourceType: "lead"}))

	removed, err := svc.DeleteByResource(ctx, "lead", lead)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	require.Len(t, store.items, 1)
	assert.Equal(t, other, *store.items[0].ResourceID)
}
