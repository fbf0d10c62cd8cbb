package inapp

import (
	"context"
	"errors"
	"time"

	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate           = "notification.inapp.repository.create"
	opList             = "notification.inapp.repository.list"
	opCountUnread      = "notification.inapp.repository.count_unread"
	opMarkRead         = "notification.inapp.repository.mark_read"
	opMarkAllRead      = "notification.inapp.repository.mark_all_read"
	opDelete           = "notification.inapp.repository.delete"
	opDeleteByResource = "notification.inapp.repository.delete_by_resource"

	errRepoNotConfigured = "in-app notification repository not configured"
	errUserIDRequired    = "userId is required"
	errNotFound          = "notification not found"
)

// Type is the lifecycle event a notification reports.
type Type string

const (
	TypeCreated       Type = "created"
	TypeTransferred   Type = "transferred"
	TypeStatusChanged Type = "statusChanged"
	TypeDeleted       Type = "deleted"
)

type Notification struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	Type         Type       `json:"type"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	ResourceType *string    `json:"resourceType,omitempty"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CreateParams struct {
	UserID       uuid.UUID
	Type         Type
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, user_id, type, title, content, resource_id, resource_type, is_read, created_at`

func scanNotification(row pgx.CollectableRow) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (r *Repository) ready(op string) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(op)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if err := r.ready(opCreate); err != nil {
		return Notification{}, err
	}
	if p.UserID == uuid.Nil {
		return Notification{}, apperr.Validation(errUserIDRequired).WithOp(opCreate)
	}
	if p.Title == "" || p.Type == "" {
		return Notification{}, apperr.Validation("type and title are required").WithOp(opCreate)
	}

	rows, _ := r.pool.Query(ctx, `
		INSERT INTO in_app_notifications (id, user_id, type, title, content, resource_id, resource_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+notificationColumns,
		uuid.New(), p.UserID, string(p.Type), p.Title, p.Content, p.ResourceID, p.ResourceType,
	)
	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Notification{}, apperr.Reference("recipient user does not exist").WithOp(opCreate).WithErr(err)
		}
		return Notification{}, apperr.Wrap(apperr.KindInternal, "create in-app notification failed", err).WithOp(opCreate)
	}
	return n, nil
}

// List returns one page newest first together with the user's total count.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	if err := r.ready(opList); err != nil {
		return nil, 0, err
	}
	if userID == uuid.Nil {
		return nil, 0, apperr.Validation(errUserIDRequired).WithOp(opList)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM in_app_notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "count notifications failed", err).WithOp(opList)
	}
	if total == 0 || offset >= total {
		return []Notification{}, total, nil
	}

	rows, _ := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM in_app_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list notifications failed", err).WithOp(opList)
	}
	return items, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := r.ready(opCountUnread); err != nil {
		return 0, err
	}
	if userID == uuid.Nil {
		return 0, apperr.Validation(errUserIDRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM in_app_notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count unread notifications failed", err).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return r.execOwned(ctx, opMarkRead, "mark notification read failed", `
		UPDATE in_app_notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, now())
		WHERE id = $1 AND user_id = $2`, notificationID, userID)
}

func (r *Repository) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	return r.execOwned(ctx, opDelete, "delete notification failed",
		`DELETE FROM in_app_notifications WHERE id = $1 AND user_id = $2`, notificationID, userID)
}

// execOwned runs a statement scoped to one notification of one user and
// reports NotFound when it touched nothing, so other users' rows look absent.
func (r *Repository) execOwned(ctx context.Context, op, failure, sql string, notificationID, userID uuid.UUID) error {
	if err := r.ready(op); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, sql, notificationID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, failure, err).WithOp(op)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(errNotFound).WithOp(op)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := r.ready(opMarkAllRead); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications
		SET is_read = TRUE, read_at = now()
		WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "mark all notifications read failed", err).WithOp(opMarkAllRead)
	}
	return tag.RowsAffected(), nil
}

// DeleteByResource removes every notification pointing at the resource,
// whoever received it.
func (r *Repository) DeleteByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) (int64, error) {
	if err := r.ready(opDeleteByResource); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM in_app_notifications WHERE resource_type = $1 AND resource_id = $2`, resourceType, resourceID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "delete notifications by resource failed", err).WithOp(opDeleteByResource)
	}
	return tag.RowsAffected(), nil
}
