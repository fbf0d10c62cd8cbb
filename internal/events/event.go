// Package events defines the lead lifecycle events published by the leads
// module and consumed by notification fanout.
package events

import (
	"brokerage_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

const (
	LeadCreatedName       = "leads.lead.created"
	LeadTransferredName   = "leads.lead.transferred"
	LeadStatusChangedName = "leads.lead.status_changed"
	LeadDeletedName       = "leads.lead.deleted"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// Events carry a snapshot of what recipient resolution needs, so handlers
// never reload a lead that may already be gone.

// LeadCreated is published after a lead is persisted.
type LeadCreated struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	CustomerName  string     `json:"customerName"`
	CreatorBroker *uuid.UUID `json:"creatorBroker,omitempty"`
	ActorUserID   uuid.UUID  `json:"actorUserId"`
}

func (e LeadCreated) EventName() string { return LeadCreatedName }

// Grant is one newly appended ledger entry.
type Grant struct {
	ShareType string     `json:"shareType"`
	ToBroker  *uuid.UUID `json:"toBroker,omitempty"`
	Region    *uuid.UUID `json:"region,omitempty"`
}

// LeadTransferred is published after ledger entries were appended. Grants
// holds only entries the call actually added.
type LeadTransferred struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	CustomerName string    `json:"customerName"`
	FromBroker   uuid.UUID `json:"fromBroker"`
	ActorUserID  uuid.UUID `json:"actorUserId"`
	Grants       []Grant   `json:"grants"`
}

func (e LeadTransferred) EventName() string { return LeadTransferredName }

// LeadStatusChanged is published after a status update commits.
type LeadStatusChanged struct {
	BaseEvent
	LeadID        uuid.UUID   `json:"leadId"`
	CustomerName  string      `json:"customerName"`
	OldStatus     string      `json:"oldStatus"`
	NewStatus     string      `json:"newStatus"`
	CreatorBroker *uuid.UUID  `json:"creatorBroker,omitempty"`
	LedgerBrokers []uuid.UUID `json:"ledgerBrokers"`
	ActorUserID   uuid.UUID   `json:"actorUserId"`
}

func (e LeadStatusChanged) EventName() string { return LeadStatusChangedName }

// LeadDeleted is published after a lead and its notifications are removed.
type LeadDeleted struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	CustomerName  string     `json:"customerName"`
	CreatorBroker *uuid.UUID `json:"creatorBroker,omitempty"`
	ActorUserID   uuid.UUID  `json:"actorUserId"`
}

func (e LeadDeleted) EventName() string { return LeadDeletedName }
