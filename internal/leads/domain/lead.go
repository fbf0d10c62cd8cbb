// Package domain holds the lead aggregate, its transfer ledger entries and the
// rules that do not depend on storage.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the admin-controlled verification flag of a lead.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "Unverified"
	VerificationVerified   VerificationStatus = "Verified"
)

// ParseVerificationStatus accepts the canonical spelling, case-insensitively.
func ParseVerificationStatus(raw string) (VerificationStatus, bool) {
	switch {
	case equalFold(raw, string(VerificationUnverified)):
		return VerificationUnverified, true
	case equalFold(raw, string(VerificationVerified)):
		return VerificationVerified, true
	}
	return "", false
}

// Lead is a customer inquiry together with its ordered transfer ledger.
type Lead struct {
	ID                 uuid.UUID
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	Requirement        string
	PropertyType       string
	Budget             float64
	PrimaryRegionID    uuid.UUID
	SecondaryRegionID  *uuid.UUID
	Status             Status
	VerificationStatus VerificationStatus
	CreatedBy          *uuid.UUID
	Transfers          []Transfer
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsCreatedBy reports whether brokerID owns the lead.
func (l *Lead) IsCreatedBy(brokerID uuid.UUID) bool {
	return l.CreatedBy != nil && *l.CreatedBy == brokerID
}

// HasTransferKey reports whether the ledger already holds an entry with key.
func (l *Lead) HasTransferKey(key string) bool {
	for _, t := range l.Transfers {
		if t.Key() == key {
			return true
		}
	}
	return false
}

// LedgerBrokerIDs returns every broker referenced by the ledger, as source or
// individual target, in first-seen order without duplicates.
func (l *Lead) LedgerBrokerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0, len(l.Transfers))
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, t := range l.Transfers {
		add(t.FromBroker)
		if t.ToBroker != nil {
			add(*t.ToBroker)
		}
	}
	return out
}

// Clone returns a deep copy so callers can mutate without aliasing the ledger.
func (l *Lead) Clone() *Lead {
	cp := *l
	cp.Transfers = append([]Transfer(nil), l.Transfers...)
	return &cp
}

// LeadPatch carries the attributes a partial update writes. Nil fields keep
// their stored value; SecondaryRegionSet distinguishes clearing the secondary
// region from leaving it alone.
type LeadPatch struct {
	CustomerName       *string
	CustomerEmail      *string
	CustomerPhone      *string
	Requirement        *string
	PropertyType       *string
	Budget             *float64
	Notes              *string
	PrimaryRegionID    *uuid.UUID
	SecondaryRegionID  *uuid.UUID
	SecondaryRegionSet bool
}

func (p LeadPatch) IsEmpty() bool {
	return p.CustomerName == nil && p.CustomerEmail == nil && p.CustomerPhone == nil &&
		p.Requirement == nil && p.PropertyType == nil && p.Budget == nil && p.Notes == nil &&
		p.PrimaryRegionID == nil && !p.SecondaryRegionSet
}

// ApplyTo writes the patched attributes onto l.
func (p LeadPatch) ApplyTo(l *Lead) {
	setIf(&l.CustomerName, p.CustomerName)
	setIf(&l.CustomerEmail, p.CustomerEmail)
	setIf(&l.CustomerPhone, p.CustomerPhone)
	setIf(&l.Requirement, p.Requirement)
	setIf(&l.PropertyType, p.PropertyType)
	setIf(&l.Budget, p.Budget)
	setIf(&l.Notes, p.Notes)
	setIf(&l.PrimaryRegionID, p.PrimaryRegionID)
	if p.SecondaryRegionSet {
		l.SecondaryRegionID = p.SecondaryRegionID
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
