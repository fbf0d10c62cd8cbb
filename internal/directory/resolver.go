package directory

import (
	"context"
	"errors"
	"fmt"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is the read surface the resolver needs. *Repository satisfies it.
type Store interface {
	BrokerIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	BrokerRegionIDs(ctx context.Context, brokerID uuid.UUID) ([]uuid.UUID, error)
	BrokerExists(ctx context.Context, brokerID uuid.UUID) (bool, error)
	RegionExists(ctx context.Context, regionID uuid.UUID) (bool, error)
	RegionIDsByCity(ctx context.Context, city string) ([]uuid.UUID, error)
	ActiveAdminUserIDs(ctx context.Context) ([]uuid.UUID, error)
	BrokerUsers(ctx context.Context, brokerIDs []uuid.UUID) ([]BrokerUser, error)
	BrokerUsersInRegion(ctx context.Context, regionID uuid.UUID) ([]BrokerUser, error)
	AllBrokerUsers(ctx context.Context) ([]BrokerUser, error)
}

var _ Store = (*Repository)(nil)

// Resolver answers identity and membership questions against the live
// directory. Nothing is cached: region visibility must follow membership
// changes immediately.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// MapUserToBroker returns the broker profile of userID, and false when the
// user has none.
func (r *Resolver) MapUserToBroker(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	id, err := r.store.BrokerIDByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// ResolveBrokerRegions returns the broker's current region memberships.
func (r *Resolver) ResolveBrokerRegions(ctx context.Context, brokerID uuid.UUID) ([]uuid.UUID, error) {
	return r.store.BrokerRegionIDs(ctx, brokerID)
}

// ResolveActor builds the acting identity for a request. Any user with a
// broker profile acts through it, admins included.
func (r *Resolver) ResolveActor(ctx context.Context, userID uuid.UUID, roles []string) (domain.Actor, error) {
	actor := domain.Actor{UserID: userID, Role: primaryRole(roles)}
	brokerID, ok, err := r.MapUserToBroker(ctx, userID)
	if err != nil {
		return domain.Actor{}, err
	}
	if ok {
		actor.BrokerID = &brokerID
	}
	return actor, nil
}

// RequireBroker fails with a reference error naming field when brokerID does not exist.
func (r *Resolver) RequireBroker(ctx context.Context, field string, brokerID uuid.UUID) error {
	ok, err := r.store.BrokerExists(ctx, brokerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Reference(fmt.Sprintf("%s %s does not exist", field, brokerID))
	}
	return nil
}

// RequireRegion fails with a reference error naming field when regionID does not exist.
func (r *Resolver) RequireRegion(ctx context.Context, field string, regionID uuid.UUID) error {
	ok, err := r.store.RegionExists(ctx, regionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Reference(fmt.Sprintf("%s %s does not exist", field, regionID))
	}
	return nil
}

// RegionIDsByCity returns the regions whose city matches, ignoring case.
func (r *Resolver) RegionIDsByCity(ctx context.Context, city string) ([]uuid.UUID, error) {
	return r.store.RegionIDsByCity(ctx, city)
}

// ActiveAdminUserIDs lists users currently holding an active admin account.
func (r *Resolver) ActiveAdminUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.store.ActiveAdminUserIDs(ctx)
}

// BrokerUserIDs maps broker ids to user ids. Unknown brokers are omitted.
func (r *Resolver) BrokerUserIDs(ctx context.Context, brokerIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	users, err := r.store.BrokerUsers(ctx, brokerIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uuid.UUID, len(users))
	for _, bu := range users {
		out[bu.BrokerID] = bu.UserID
	}
	return out, nil
}

// BrokerUsersInRegion lists brokers currently resident in regionID.
func (r *Resolver) BrokerUsersInRegion(ctx context.Context, regionID uuid.UUID) ([]BrokerUser, error) {
	return r.store.BrokerUsersInRegion(ctx, regionID)
}

// AllBrokerUsers lists every broker in the system.
func (r *Resolver) AllBrokerUsers(ctx context.Context) ([]BrokerUser, error) {
	return r.store.AllBrokerUsers(ctx)
}

func primaryRole(roles []string) domain.Role {
	var fallback domain.Role = domain.RoleCustomer
	for _, role := range roles {
		switch domain.Role(role) {
		case domain.RoleAdmin:
			return domain.RoleAdmin
		case domain.RoleBroker:
			fallback = domain.RoleBroker
		}
	}
	return fallback
}
