package filter

import (
	"testing"
	"time"

	"brokerage_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestCompileNumbersArgumentsInOrder(t *testing.T) {
	broker := uuid.New()
	expr := And(
		Eq(FieldStatus, "New"),
		Or(Eq(FieldCreatedBy, broker), HasTransfer(ShareTypeIs(domain.ShareIndividual), ToBrokerIs(broker))),
		Gte(FieldBudget, 100000.0),
	)

	where, args := Compile(expr)

	assert.Equal(t,
		"(l.status = $1 AND (l.created_by = $2 OR EXISTS (SELECT 1 FROM lead_transfers t WHERE t.lead_id = l.id AND t.share_type = $3 AND t.to_broker_id = $4)) AND l.budget >= $5)",
		where)
	assert.Equal(t, []any{"New", broker, "individual", broker, 100000.0}, args)
}

func TestCombinatorsSimplifyConstants(t *testing.T) {
	where, args := Compile(And())
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)

	where, _ = Compile(Or())
	assert.Equal(t, "FALSE", where)

	where, _ = Compile(And(True(), Eq(FieldStatus, "New")))
	assert.Equal(t, "l.status = $1", where)

	where, _ = Compile(Or(Eq(FieldStatus, "New"), True()))
	assert.Equal(t, "TRUE", where)

	where, _ = Compile(And(Eq(FieldStatus, "New"), False()))
	assert.Equal(t, "FALSE", where)
}

func TestContainsEscapesLikeWildcards(t *testing.T) {
	where, args := Compile(Contains(FieldCustomerName, "50%_off"))

	assert.Equal(t, "l.customer_name ILIKE $1", where)
	assert.Equal(t, []any{`%50\%\_off%`}, args)
}

func TestInWithNoValuesMatchesNothing(t *testing.T) {
	expr := In[uuid.UUID](FieldPrimaryRegion)
	where, _ := Compile(expr)
	assert.Equal(t, "FALSE", where)
	assert.False(t, expr.Match(&domain.Lead{PrimaryRegionID: uuid.New()}))
}

func TestRegionInWithNoRegionsCompilesFalse(t *testing.T) {
	where, args := Compile(HasTransfer(ShareTypeIs(domain.ShareRegion), RegionIn()))
	assert.Equal(t, "EXISTS (SELECT 1 FROM lead_transfers t WHERE t.lead_id = l.id AND t.share_type = $1 AND FALSE)", where)
	assert.Equal(t, []any{"region"}, args)
}

func TestMatchEvaluatesFieldConditions(t *testing.T) {
	region := uuid.New()
	now := time.Now()
	lead := &domain.Lead{
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		Requirement:     "3BR apartment near the lake",
		Budget:          250000,
		Status:          domain.StatusAssigned,
		PrimaryRegionID: region,
		CreatedAt:       now.Add(-2 * time.Hour),
	}

	assert.True(t, Contains(FieldRequirement, "APARTMENT").Match(lead))
	assert.True(t, And(Gte(FieldBudget, 100000.0), Lte(FieldBudget, 500000.0)).Match(lead))
	assert.False(t, Gte(FieldBudget, 300000.0).Match(lead))
	assert.True(t, In(FieldPrimaryRegion, uuid.New(), region).Match(lead))
	assert.True(t, Gte(FieldCreatedAt, now.Add(-24*time.Hour)).Match(lead))
	assert.False(t, Eq(FieldCreatedBy, uuid.New()).Match(lead))
}

func TestMatchEvaluatesTransferConditions(t *testing.T) {
	a, b, r := uuid.New(), uuid.New(), uuid.New()
	lead := &domain.Lead{Transfers: []domain.Transfer{
		domain.NewTransfer(a, domain.TransferSpec{ShareType: domain.ShareIndividual, ToBroker: ptr(b)}),
		domain.NewTransfer(b, domain.TransferSpec{ShareType: domain.ShareRegion, Region: ptr(r)}),
	}}

	assert.True(t, HasTransfer().Match(lead))
	assert.False(t, HasTransfer().Match(&domain.Lead{}))
	assert.True(t, HasTransfer(FromBrokerIs(a), ToBrokerIs(b)).Match(lead))
	// conditions must hold on the same entry
	assert.False(t, HasTransfer(FromBrokerIs(a), RegionIn(r)).Match(lead))
	assert.True(t, HasTransfer(ShareTypeIs(domain.ShareRegion), RegionIn(uuid.New(), r)).Match(lead))
	assert.False(t, HasTransfer(ShareTypeIs(domain.ShareAll)).Match(lead))
}

func TestParsePageDefaults(t *testing.T) {
	cases := []struct {
		page, limit string
		want        Page
	}{
		{"", "", Page{1, 10}},
		{"3", "25", Page{3, 25}},
		{"abc", "x", Page{1, 10}},
		{"0", "-5", Page{1, 10}},
		{"2", "1000", Page{2, 10}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParsePage(tc.page, tc.limit), "page=%q limit=%q", tc.page, tc.limit)
	}

	p := Page{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 3, p.TotalPages(21))
	assert.Equal(t, 1, p.TotalPages(0))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, Sort{Field: FieldCreatedAt, Desc: true}, ParseSort("", ""))
	assert.Equal(t, Sort{Field: FieldBudget, Desc: false}, ParseSort("budget", "ASC"))
	assert.Equal(t, Sort{Field: FieldCreatedAt, Desc: true}, ParseSort("password", "sideways"))
	assert.Equal(t, "l.budget ASC", ParseSort("budget", "asc").SQL())
}
