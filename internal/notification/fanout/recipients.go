package fanout

import (
	"context"

	"brokerage_backend/internal/directory"
	"brokerage_backend/internal/events"

	"github.com/google/uuid"
)

// Directory is the live broker and user lookup recipient rules depend on.
type Directory interface {
	ActiveAdminUserIDs(ctx context.Context) ([]uuid.UUID, error)
	BrokerUserIDs(ctx context.Context, brokerIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	BrokerUsersInRegion(ctx context.Context, regionID uuid.UUID) ([]directory.BrokerUser, error)
	AllBrokerUsers(ctx context.Context) ([]directory.BrokerUser, error)
}

// recipientSet keeps distinct user ids in first-added order.
type recipientSet struct {
	seen  map[uuid.UUID]struct{}
	order []uuid.UUID
}

func newRecipientSet() *recipientSet {
	return &recipientSet{seen: make(map[uuid.UUID]struct{})}
}

func (s *recipientSet) add(ids ...uuid.UUID) {
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

func (s *recipientSet) has(id uuid.UUID) bool {
	_, ok := s.seen[id]
	return ok
}

// adminsAndCreator serves created and deleted: every active admin, plus the
// creating broker's user unless already an admin or the actor.
func adminsAndCreator(ctx context.Context, dir Directory, creator *uuid.UUID, actor uuid.UUID) ([]uuid.UUID, error) {
	admins, err := dir.ActiveAdminUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := newRecipientSet()
	set.add(admins...)

	if creator == nil {
		return set.order, nil
	}
	users, err := dir.BrokerUserIDs(ctx, []uuid.UUID{*creator})
	if err != nil {
		return nil, err
	}
	if user, ok := users[*creator]; ok && !set.has(user) && user != actor {
		set.add(user)
	}
	return set.order, nil
}

// transferTargets serves transferred. Region and all grants reach every
// matching broker except the one that made the grant.
func transferTargets(ctx context.Context, dir Directory, from uuid.UUID, grants []events.Grant) ([]uuid.UUID, error) {
	set := newRecipientSet()

	var individuals []uuid.UUID
	for _, g := range grants {
		if g.ShareType == "individual" && g.ToBroker != nil {
			individuals = append(individuals, *g.ToBroker)
		}
	}
	if len(individuals) > 0 {
		users, err := dir.BrokerUserIDs(ctx, individuals)
		if err != nil {
			return nil, err
		}
		for _, broker := range individuals {
			if user, ok := users[broker]; ok {
				set.add(user)
			}
		}
	}

	var all []directory.BrokerUser
	for _, g := range grants {
		var cohort []directory.BrokerUser
		switch {
		case g.ShareType == "region" && g.Region != nil:
			members, err := dir.BrokerUsersInRegion(ctx, *g.Region)
			if err != nil {
				return nil, err
			}
			cohort = members
		case g.ShareType == "all":
			if all == nil {
				everyone, err := dir.AllBrokerUsers(ctx)
				if err != nil {
					return nil, err
				}
				all = everyone
			}
			cohort = all
		}
		for _, bu := range cohort {
			if bu.BrokerID != from {
				set.add(bu.UserID)
			}
		}
	}
	return set.order, nil
}

// creatorAndLedger serves statusChanged: the creator plus every broker that
// appears anywhere in the ledger.
func creatorAndLedger(ctx context.Context, dir Directory, creator *uuid.UUID, ledgerBrokers []uuid.UUID) ([]uuid.UUID, error) {
	brokers := make([]uuid.UUID, 0, len(ledgerBrokers)+1)
	if creator != nil {
		brokers = append(brokers, *creator)
	}
	brokers = append(brokers, ledgerBrokers...)
	if len(brokers) == 0 {
		return nil, nil
	}

	users, err := dir.BrokerUserIDs(ctx, brokers)
	if err != nil {
		return nil, err
	}
	set := newRecipientSet()
	for _, broker := range brokers {
		if user, ok := users[broker]; ok {
			set.add(user)
		}
	}
	return set.order, nil
}
