package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"brokerage_backend/internal/notification/inapp"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/httpkit"
	"brokerage_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inboxStub struct {
	owner     uuid.UUID
	items     []inapp.Notification
	lastLimit int
	marked    []uuid.UUID
}

func (s *inboxStub) Create(context.Context, inapp.CreateParams) (inapp.Notification, error) {
	return inapp.Notification{}, nil
}

func (s *inboxStub) List(_ context.Context, userID uuid.UUID, limit, _ int) ([]inapp.Notification, int, error) {
	s.lastLimit = limit
	if userID != s.owner {
		return nil, 0, nil
	}
	return s.items, len(s.items), nil
}

func (s *inboxStub) CountUnread(context.Context, uuid.UUID) (int, error) { return len(s.items), nil }

func (s *inboxStub) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	if userID != s.owner {
		return apperr.NotFound("notification not found")
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *inboxStub) MarkAllRead(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (s *inboxStub) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *inboxStub) DeleteByResource(context.Context, string, uuid.UUID) (int64, error) {
	return 0, nil
}

func newInboxRouter(store *inboxStub, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/notifications", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, caller)
		c.Set(httpkit.ContextRolesKey, []string{httpkit.RoleBroker})
	})
	NewHTTPHandler(inapp.NewService(store, logger.NewWithWriter("test", io.Discard))).RegisterRoutes(rg)
	return r
}

func TestListReturnsCallerInbox(t *testing.T) {
	owner := uuid.New()
	store := &inboxStub{owner: owner, items: []inapp.Notification{
		{ID: uuid.New(), UserID: owner, Type: inapp.TypeTransferred, Title: "Lead transferred"},
	}}

	rec := httptest.NewRecorder()
	newInboxRouter(store, owner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?limit=500", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data inapp.Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Data.Total)
	assert.Equal(t, inapp.TypeTransferred, env.Data.Items[0].Type)
	assert.Equal(t, 20, store.lastLimit, "oversized limit falls back to the default")
}

func TestListRejectsNonNumericPaging(t *testing.T) {
	rec := httptest.NewRecorder()
	newInboxRouter(&inboxStub{}, uuid.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?page=two", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadValidatesAndScopesToCaller(t *testing.T) {
	owner := uuid.New()
	store := &inboxStub{owner: owner}

	rec := httptest.NewRecorder()
	newInboxRouter(store, owner).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/notifications/not-a-uuid/read", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	rec = httptest.NewRecorder()
	newInboxRouter(store, owner).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/notifications/"+id.String()+"/read", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, store.marked)

	rec = httptest.NewRecorder()
	newInboxRouter(store, uuid.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/notifications/"+id.String()+"/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
