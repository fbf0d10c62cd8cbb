// Package visibility decides which leads an actor may read and turns listing
// parameters into filter expressions.
package visibility

import (
	"context"
	"time"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"
	"brokerage_backend/platform/apperr"

	"github.com/google/uuid"
)

// RegionResolver reads region data live from the directory.
type RegionResolver interface {
	ResolveBrokerRegions(ctx context.Context, brokerID uuid.UUID) ([]uuid.UUID, error)
	RegionIDsByCity(ctx context.Context, city string) ([]uuid.UUID, error)
}

// Builder composes visibility and search predicates.
type Builder struct {
	regions     RegionResolver
	now         func() time.Time
	phoneRegion string
}

// NewBuilder creates a builder using the wall clock for date presets.
func NewBuilder(regions RegionResolver) *Builder {
	return &Builder{regions: regions, now: time.Now}
}

// WithClock replaces the clock used to resolve date presets.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithPhoneRegion sets the region used to read national-format phone numbers
// in the customerPhone filter.
func (b *Builder) WithPhoneRegion(region string) *Builder {
	b.phoneRegion = region
	return b
}

// ComputeVisibilityPredicate returns the leads actor may see. Admins see
// everything. A broker sees leads it created or transferred out, leads
// transferred to it individually, leads shared with a region it belongs to
// right now, and leads shared with all brokers.
func (b *Builder) ComputeVisibilityPredicate(ctx context.Context, actor domain.Actor) (filter.Expr, error) {
	if actor.IsAdmin() {
		return filter.True(), nil
	}
	if !actor.IsBroker() {
		return nil, apperr.Forbidden("only brokers and admins can view leads")
	}

	brokerID := *actor.BrokerID
	received, err := b.receivedBy(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	return filter.Or(
		filter.Eq(filter.FieldCreatedBy, brokerID),
		filter.HasTransfer(filter.FromBrokerIs(brokerID)),
		received,
	), nil
}

// receivedBy matches ledgers granting visibility to brokerID through any of
// the three share types, with region membership resolved now.
func (b *Builder) receivedBy(ctx context.Context, brokerID uuid.UUID) (filter.Expr, error) {
	regions, err := b.regions.ResolveBrokerRegions(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	return filter.Or(
		filter.HasTransfer(filter.ShareTypeIs(domain.ShareIndividual), filter.ToBrokerIs(brokerID)),
		filter.HasTransfer(filter.ShareTypeIs(domain.ShareRegion), filter.RegionIn(regions...)),
		filter.HasTransfer(filter.ShareTypeIs(domain.ShareAll)),
	), nil
}

// TransferredParams narrows the transferred-leads view.
type TransferredParams struct {
	ToBroker   string
	FromBroker string
	BrokerID   string
}

// ComputeTransferredLeadsPredicate selects leads with a non-empty ledger.
// toBroker keeps individual grants to that broker, fromBroker keeps grants it
// made, and brokerId keeps grants it made or received by any share type.
// Non-admin actors are further limited to what they can see.
func (b *Builder) ComputeTransferredLeadsPredicate(ctx context.Context, actor domain.Actor, p TransferredParams) (filter.Expr, error) {
	toBroker, err := domain.ParseOptionalID("toBroker", p.ToBroker)
	if err != nil {
		return nil, err
	}
	fromBroker, err := domain.ParseOptionalID("fromBroker", p.FromBroker)
	if err != nil {
		return nil, err
	}
	brokerID, err := domain.ParseOptionalID("brokerId", p.BrokerID)
	if err != nil {
		return nil, err
	}

	conds := []filter.Expr{filter.HasTransfer()}

	if toBroker != nil {
		conds = append(conds, filter.HasTransfer(filter.ShareTypeIs(domain.ShareIndividual), filter.ToBrokerIs(*toBroker)))
	}
	if fromBroker != nil {
		conds = append(conds, filter.HasTransfer(filter.FromBrokerIs(*fromBroker)))
	}
	if brokerID != nil {
		received, err := b.receivedBy(ctx, *brokerID)
		if err != nil {
			return nil, err
		}
		conds = append(conds, filter.Or(filter.HasTransfer(filter.FromBrokerIs(*brokerID)), received))
	}

	if !actor.IsAdmin() {
		visible, err := b.ComputeVisibilityPredicate(ctx, actor)
		if err != nil {
			return nil, err
		}
		conds = append(conds, visible)
	}

	return filter.And(conds...), nil
}
