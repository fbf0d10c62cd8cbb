package inapp

import (
	"context"

	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence behind the inbox. *Repository satisfies it.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	DeleteByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) (int64, error)
}

var _ Store = (*Repository)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo Store
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

type SendParams struct {
	UserID       uuid.UUID
	Type         Type
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType string
}

// Send persists one notification for one recipient.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("in-app notification service not configured")
	}

	var resourceType *string
	if p.ResourceType != "" {
		resourceType = &p.ResourceType
	}

	_, err := s.repo.Create(ctx, CreateParams{
		UserID:       p.UserID,
		Type:         p.Type,
		Title:        p.Title,
		Content:      p.Content,
		ResourceID:   p.ResourceID,
		ResourceType: resourceType,
	})
	return err
}

// Page is one page of a user's inbox.
type Page struct {
	Items []Notification `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	offset := (page - 1) * pageSize
	items, total, err := s.repo.List(ctx, userID, pageSize, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, Limit: pageSize}, nil
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// DeleteByResource drains notifications that reference a resource about to
// be removed.
func (s *Service) DeleteByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) (int64, error) {
	removed, err := s.repo.DeleteByResource(ctx, resourceType, resourceID)
	if err != nil {
		return 0, err
	}
	if removed > 0 && s.log != nil {
		s.log.WithContext(ctx).Info("drained notifications", "resourceType", resourceType, "resourceId", resourceID, "count", removed)
	}
	return removed, nil
}
