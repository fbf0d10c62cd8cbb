package visibility

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/filter"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/phone"

	"github.com/google/uuid"
)

// Date range presets accepted by BuildSearchFilter.
const (
	RangeToday      = "today"
	RangeLast7Days  = "last7days"
	RangeLast30Days = "last30days"
)

const dateLayout = "2006-01-02"

// SearchParams are the raw listing filters as received from the client.
type SearchParams struct {
	Search             string
	Status             string
	PropertyType       string
	Region             string
	RegionID           string
	PrimaryRegionID    string
	SecondaryRegionID  string
	RegionCity         string
	Requirement        string
	BudgetMin          string
	BudgetMax          string
	CreatedBy          string
	CustomerEmail      string
	CustomerPhone      string
	DateRange          string
	FromDate           string
	ToDate             string
	VerificationStatus string
}

// BuildSearchFilter validates p and returns the conjunction of every supplied
// filter. An empty p matches everything.
func (b *Builder) BuildSearchFilter(ctx context.Context, p SearchParams) (filter.Expr, error) {
	conds := make([]filter.Expr, 0, 8)

	if s := strings.TrimSpace(p.Search); s != "" {
		conds = append(conds, filter.Or(
			filter.Contains(filter.FieldCustomerName, s),
			filter.Contains(filter.FieldCustomerEmail, s),
			filter.Contains(filter.FieldCustomerPhone, s),
			filter.Contains(filter.FieldRequirement, s),
		))
	}

	if raw := strings.TrimSpace(p.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("invalid status %q", raw))
		}
		conds = append(conds, filter.Eq(filter.FieldStatus, string(status)))
	}

	if raw := strings.TrimSpace(p.VerificationStatus); raw != "" {
		vs, ok := domain.ParseVerificationStatus(raw)
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("invalid verificationStatus %q", raw))
		}
		conds = append(conds, filter.Eq(filter.FieldVerificationStatus, string(vs)))
	}

	if pt := strings.TrimSpace(p.PropertyType); pt != "" {
		conds = append(conds, filter.Eq(filter.FieldPropertyType, pt))
	}
	if req := strings.TrimSpace(p.Requirement); req != "" {
		conds = append(conds, filter.Contains(filter.FieldRequirement, req))
	}
	if email := strings.TrimSpace(p.CustomerEmail); email != "" {
		conds = append(conds, filter.Eq(filter.FieldCustomerEmail, strings.ToLower(email)))
	}
	if raw := strings.TrimSpace(p.CustomerPhone); raw != "" {
		conds = append(conds, filter.Contains(filter.FieldCustomerPhone, phone.SearchKey(raw, b.phoneRegion)))
	}

	createdBy, err := domain.ParseOptionalID("createdBy", p.CreatedBy)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		conds = append(conds, filter.Eq(filter.FieldCreatedBy, *createdBy))
	}

	budget, err := budgetFilter(p.BudgetMin, p.BudgetMax)
	if err != nil {
		return nil, err
	}
	conds = append(conds, budget)

	created, err := b.createdWindow(p)
	if err != nil {
		return nil, err
	}
	conds = append(conds, created)

	region, err := b.regionFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	conds = append(conds, region)

	return filter.And(conds...), nil
}

func budgetFilter(rawMin, rawMax string) (filter.Expr, error) {
	minimum, err := parseBudget("budgetMin", rawMin)
	if err != nil {
		return nil, err
	}
	maximum, err := parseBudget("budgetMax", rawMax)
	if err != nil {
		return nil, err
	}
	if minimum != nil && maximum != nil && *minimum > *maximum {
		return nil, apperr.Validation("invalid budget range: budgetMin is greater than budgetMax")
	}

	var conds []filter.Expr
	if minimum != nil {
		conds = append(conds, filter.Gte(filter.FieldBudget, *minimum))
	}
	if maximum != nil {
		conds = append(conds, filter.Lte(filter.FieldBudget, *maximum))
	}
	return filter.And(conds...), nil
}

func parseBudget(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, apperr.Validation(fmt.Sprintf("invalid %s: must be a non-negative number", field))
	}
	return &v, nil
}

// createdWindow resolves a preset to [start, now] or explicit dates to
// [fromDate, toDate], with a date-only toDate covering the whole day.
func (b *Builder) createdWindow(p SearchParams) (filter.Expr, error) {
	now := b.now().UTC()

	if preset := strings.ToLower(strings.TrimSpace(p.DateRange)); preset != "" {
		var start time.Time
		switch preset {
		case RangeToday:
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		case RangeLast7Days:
			start = now.AddDate(0, 0, -7)
		case RangeLast30Days:
			start = now.AddDate(0, 0, -30)
		default:
			return nil, apperr.Validation(fmt.Sprintf("invalid dateRange %q: expected today, last7days or last30days", p.DateRange))
		}
		return filter.And(filter.Gte(filter.FieldCreatedAt, start), filter.Lte(filter.FieldCreatedAt, now)), nil
	}

	from, err := parseDate("fromDate", p.FromDate, false)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("toDate", p.ToDate, true)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, apperr.Validation("invalid date range: fromDate is after toDate")
	}

	var conds []filter.Expr
	if from != nil {
		conds = append(conds, filter.Gte(filter.FieldCreatedAt, *from))
	}
	if to != nil {
		conds = append(conds, filter.Lte(filter.FieldCreatedAt, *to))
	}
	return filter.And(conds...), nil
}

func parseDate(field, raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid %s: expected YYYY-MM-DD or RFC 3339", field))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// regionFilter prefers primaryRegionId/secondaryRegionId, then region or
// regionId against either slot, then regionCity resolved to region ids.
func (b *Builder) regionFilter(ctx context.Context, p SearchParams) (filter.Expr, error) {
	primary, err := domain.ParseOptionalID("primaryRegionId", p.PrimaryRegionID)
	if err != nil {
		return nil, err
	}
	secondary, err := domain.ParseOptionalID("secondaryRegionId", p.SecondaryRegionID)
	if err != nil {
		return nil, err
	}
	region, err := domain.ParseOptionalID("region", p.Region)
	if err != nil {
		return nil, err
	}
	regionID, err := domain.ParseOptionalID("regionId", p.RegionID)
	if err != nil {
		return nil, err
	}

	if primary != nil || secondary != nil {
		var conds []filter.Expr
		if primary != nil {
			conds = append(conds, filter.Eq(filter.FieldPrimaryRegion, *primary))
		}
		if secondary != nil {
			conds = append(conds, filter.Eq(filter.FieldSecondaryRegion, *secondary))
		}
		return filter.And(conds...), nil
	}

	if region == nil {
		region = regionID
	}
	if region != nil {
		return eitherRegion(*region), nil
	}

	if city := strings.TrimSpace(p.RegionCity); city != "" {
		ids, err := b.regions.RegionIDsByCity(ctx, city)
		if err != nil {
			return nil, err
		}
		return eitherRegion(ids...), nil
	}

	return filter.True(), nil
}

func eitherRegion(ids ...uuid.UUID) filter.Expr {
	return filter.Or(
		filter.In(filter.FieldPrimaryRegion, ids...),
		filter.In(filter.FieldSecondaryRegion, ids...),
	)
}
