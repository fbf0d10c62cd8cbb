// Package filter builds lead predicates from typed field and ledger
// conditions. Every expression compiles to a parameterized PostgreSQL WHERE
// fragment over the aliases "l" (leads) and "t" (lead_transfers) and can also
// be evaluated in memory against a domain.Lead.
package filter

import (
	"strings"
	"time"

	"brokerage_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Field names a filterable lead attribute.
type Field string

const (
	FieldStatus             Field = "status"
	FieldPropertyType       Field = "propertyType"
	FieldVerificationStatus Field = "verificationStatus"
	FieldBudget             Field = "budget"
	FieldCreatedAt          Field = "createdAt"
	FieldUpdatedAt          Field = "updatedAt"
	FieldCreatedBy          Field = "createdBy"
	FieldPrimaryRegion      Field = "primaryRegion"
	FieldSecondaryRegion    Field = "secondaryRegion"
	FieldCustomerName       Field = "customerName"
	FieldCustomerEmail      Field = "customerEmail"
	FieldCustomerPhone      Field = "customerPhone"
	FieldRequirement        Field = "requirement"
)

type fieldSpec struct {
	column string
	value  func(l *domain.Lead) any
}

var fields = map[Field]fieldSpec{
	FieldStatus:             {"l.status", func(l *domain.Lead) any { return string(l.Status) }},
	FieldPropertyType:       {"l.property_type", func(l *domain.Lead) any { return l.PropertyType }},
	FieldVerificationStatus: {"l.verification_status", func(l *domain.Lead) any { return string(l.VerificationStatus) }},
	FieldBudget:             {"l.budget", func(l *domain.Lead) any { return l.Budget }},
	FieldCreatedAt:          {"l.created_at", func(l *domain.Lead) any { return l.CreatedAt }},
	FieldUpdatedAt:          {"l.updated_at", func(l *domain.Lead) any { return l.UpdatedAt }},
	FieldCreatedBy:          {"l.created_by", func(l *domain.Lead) any { return optionalUUID(l.CreatedBy) }},
	FieldPrimaryRegion:      {"l.primary_region_id", func(l *domain.Lead) any { return l.PrimaryRegionID }},
	FieldSecondaryRegion:    {"l.secondary_region_id", func(l *domain.Lead) any { return optionalUUID(l.SecondaryRegionID) }},
	FieldCustomerName:       {"l.customer_name", func(l *domain.Lead) any { return l.CustomerName }},
	FieldCustomerEmail:      {"l.customer_email", func(l *domain.Lead) any { return l.CustomerEmail }},
	FieldCustomerPhone:      {"l.customer_phone", func(l *domain.Lead) any { return l.CustomerPhone }},
	FieldRequirement:        {"l.requirement", func(l *domain.Lead) any { return l.Requirement }},
}

func lookup(f Field) fieldSpec {
	spec, ok := fields[f]
	if !ok {
		panic("filter: unknown field " + string(f))
	}
	return spec
}

func optionalUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

// compare orders two values of the same dynamic type. ok is false when the
// values are not comparable, including when either is nil.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.String(), bv.String()), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
