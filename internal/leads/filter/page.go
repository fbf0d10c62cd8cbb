package filter

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a validated 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit. Values that are not positive integers, and
// limits above MaxLimit, fall back to page 1 and limit 10.
func ParsePage(rawPage, rawLimit string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(rawLimit)); err == nil && n >= 1 && n <= MaxLimit {
		p.Limit = n
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages returns the page count for total rows, at least 1.
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}

// Sort orders lead listings. Equal keys keep storage order.
type Sort struct {
	Field Field
	Desc  bool
}

var sortable = map[string]Field{
	"createdat":    FieldCreatedAt,
	"updatedat":    FieldUpdatedAt,
	"budget":       FieldBudget,
	"customername": FieldCustomerName,
	"status":       FieldStatus,
}

// ParseSort maps sortBy/sortOrder to a Sort. Unknown fields sort by creation
// time; anything other than "asc" sorts descending.
func ParseSort(sortBy, sortOrder string) Sort {
	field, ok := sortable[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		field = FieldCreatedAt
	}
	return Sort{Field: field, Desc: !strings.EqualFold(strings.TrimSpace(sortOrder), "asc")}
}

// SQL renders the ORDER BY clause body.
func (s Sort) SQL() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return lookup(s.Field).column + " " + dir
}
