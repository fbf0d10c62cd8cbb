package filter

import (
	"strings"

	"brokerage_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// TransferCond is a condition over a single ledger entry.
type TransferCond interface {
	matchTransfer(t domain.Transfer) bool
	buildTransfer(q *query) string
}

type shareTypeCond domain.ShareType

// ShareTypeIs matches entries of the given share type.
func ShareTypeIs(st domain.ShareType) TransferCond { return shareTypeCond(st) }

func (s shareTypeCond) matchTransfer(t domain.Transfer) bool {
	return t.ShareType == domain.ShareType(s)
}

func (s shareTypeCond) buildTransfer(q *query) string {
	return "t.share_type = " + q.bind(string(s))
}

type fromBrokerCond uuid.UUID

// FromBrokerIs matches entries granted by broker.
func FromBrokerIs(broker uuid.UUID) TransferCond { return fromBrokerCond(broker) }

func (f fromBrokerCond) matchTransfer(t domain.Transfer) bool {
	return t.FromBroker == uuid.UUID(f)
}

func (f fromBrokerCond) buildTransfer(q *query) string {
	return "t.from_broker_id = " + q.bind(uuid.UUID(f))
}

type toBrokerCond uuid.UUID

// ToBrokerIs matches individual entries targeting broker.
func ToBrokerIs(broker uuid.UUID) TransferCond { return toBrokerCond(broker) }

func (c toBrokerCond) matchTransfer(t domain.Transfer) bool {
	return t.ToBroker != nil && *t.ToBroker == uuid.UUID(c)
}

func (c toBrokerCond) buildTransfer(q *query) string {
	return "t.to_broker_id = " + q.bind(uuid.UUID(c))
}

type regionInCond []uuid.UUID

// RegionIn matches region entries whose region is one of regions.
// An empty set matches nothing.
func RegionIn(regions ...uuid.UUID) TransferCond {
	return regionInCond(append([]uuid.UUID(nil), regions...))
}

func (r regionInCond) matchTransfer(t domain.Transfer) bool {
	if t.Region == nil {
		return false
	}
	for _, id := range r {
		if *t.Region == id {
			return true
		}
	}
	return false
}

func (r regionInCond) buildTransfer(q *query) string {
	if len(r) == 0 {
		return "FALSE"
	}
	placeholders := make([]string, len(r))
	for i, id := range r {
		placeholders[i] = q.bind(id)
	}
	return "t.region_id IN (" + strings.Join(placeholders, ", ") + ")"
}

type hasTransferExpr []TransferCond

// HasTransfer matches leads whose ledger holds at least one entry satisfying
// every cond. With no conds it matches any non-empty ledger.
func HasTransfer(conds ...TransferCond) Expr {
	return hasTransferExpr(conds)
}

func (h hasTransferExpr) Match(l *domain.Lead) bool {
	for _, t := range l.Transfers {
		if h.matchesEntry(t) {
			return true
		}
	}
	return false
}

func (h hasTransferExpr) matchesEntry(t domain.Transfer) bool {
	for _, c := range h {
		if !c.matchTransfer(t) {
			return false
		}
	}
	return true
}

func (h hasTransferExpr) build(q *query) string {
	var b strings.Builder
	b.WriteString("EXISTS (SELECT 1 FROM lead_transfers t WHERE t.lead_id = l.id")
	for _, c := range h {
		b.WriteString(" AND ")
		b.WriteString(c.buildTransfer(q))
	}
	b.WriteString(")")
	return b.String()
}
