// Package directory resolves users to broker profiles and brokers to their
// live region memberships. Broker, region and user records are owned by
// another service; this package only reads them.
package directory

import (
	"context"
	"errors"
	"strings"

	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a directory record does not exist.
var ErrNotFound = errors.New("not found")

const (
	opBrokerByUser        = "directory.broker_by_user"
	opBrokerRegions       = "directory.broker_regions"
	opBrokerExists        = "directory.broker_exists"
	opRegionExists        = "directory.region_exists"
	opRegionsByCity       = "directory.regions_by_city"
	opActiveAdmins        = "directory.active_admins"
	opBrokerUsers         = "directory.broker_users"
	opBrokerUsersInRegion = "directory.broker_users_in_region"
	opAllBrokerUsers      = "directory.all_broker_users"
)

// BrokerUser pairs a broker profile with its user account.
type BrokerUser struct {
	BrokerID uuid.UUID
	UserID   uuid.UUID
}

// Repository reads brokers, regions and users from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a directory repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) BrokerIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM brokers WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "failed to resolve broker", err).WithOp(opBrokerByUser)
	}
	return id, nil
}

func (r *Repository) BrokerRegionIDs(ctx context.Context, brokerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT region_id FROM broker_regions WHERE broker_id = $1 ORDER BY region_id`, brokerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load broker regions", err).WithOp(opBrokerRegions)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load broker regions", err).WithOp(opBrokerRegions)
	}
	return ids, nil
}

func (r *Repository) BrokerExists(ctx context.Context, brokerID uuid.UUID) (bool, error) {
	return r.exists(ctx, opBrokerExists, `SELECT EXISTS (SELECT 1 FROM brokers WHERE id = $1)`, brokerID)
}

func (r *Repository) RegionExists(ctx context.Context, regionID uuid.UUID) (bool, error) {
	return r.exists(ctx, opRegionExists, `SELECT EXISTS (SELECT 1 FROM regions WHERE id = $1)`, regionID)
}

func (r *Repository) exists(ctx context.Context, op, query string, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to check reference", err).WithOp(op)
	}
	return ok, nil
}

func (r *Repository) RegionIDsByCity(ctx context.Context, city string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM regions WHERE lower(city) = $1`, strings.ToLower(strings.TrimSpace(city)))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve regions", err).WithOp(opRegionsByCity)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve regions", err).WithOp(opRegionsByCity)
	}
	return ids, nil
}

func (r *Repository) ActiveAdminUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role = 'admin' AND is_active ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list admins", err).WithOp(opActiveAdmins)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list admins", err).WithOp(opActiveAdmins)
	}
	return ids, nil
}

func (r *Repository) BrokerUsers(ctx context.Context, brokerIDs []uuid.UUID) ([]BrokerUser, error) {
	if len(brokerIDs) == 0 {
		return nil, nil
	}
	return r.collectBrokerUsers(ctx, opBrokerUsers,
		`SELECT id, user_id FROM brokers WHERE id = ANY($1)`, brokerIDs)
}

func (r *Repository) BrokerUsersInRegion(ctx context.Context, regionID uuid.UUID) ([]BrokerUser, error) {
	return r.collectBrokerUsers(ctx, opBrokerUsersInRegion,
		`SELECT b.id, b.user_id FROM brokers b
		JOIN broker_regions br ON br.broker_id = b.id
		WHERE br.region_id = $1`, regionID)
}

func (r *Repository) AllBrokerUsers(ctx context.Context) ([]BrokerUser, error) {
	return r.collectBrokerUsers(ctx, opAllBrokerUsers, `SELECT id, user_id FROM brokers`)
}

func (r *Repository) collectBrokerUsers(ctx context.Context, op, query string, args ...any) ([]BrokerUser, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list broker users", err).WithOp(op)
	}
	defer rows.Close()

	var out []BrokerUser
	for rows.Next() {
		var bu BrokerUser
		if err := rows.Scan(&bu.BrokerID, &bu.UserID); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan broker user", err).WithOp(op)
		}
		out = append(out, bu)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list broker users", err).WithOp(op)
	}
	return out, nil
}
